package candidates

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"meal-rotation/internal/history"
)

// SampleMeals holds starter candidates for the default categories.
var SampleMeals = map[history.Category][]string{
	"weekday_lunch": {
		"Chicken Caesar Wrap",
		"Lentil Soup",
		"Tuna Salad",
		"Veggie Quesadilla",
		"Leftover Stir Fry",
		"Caprese Sandwich",
	},
	"weekday_dinner": {
		"Spaghetti Bolognese",
		"Chicken Curry",
		"Salmon with Rice",
		"Beef Tacos",
		"Mushroom Risotto",
		"Sheet Pan Sausages",
		"Vegetable Lasagna",
	},
	"weekend_brunch": {
		"Pancakes",
		"Shakshuka",
		"Eggs Benedict",
		"French Toast",
		"Breakfast Burritos",
	},
	"weekend_dinner": {
		"Homemade Pizza",
		"Roast Chicken",
		"Beef Stew",
		"Grilled Fish",
		"Paella",
	},
}

// Seed writes sample candidate files for categories that have none yet.
// It returns the categories it wrote.
func (s *DirSource) Seed(categories []history.Category) ([]history.Category, error) {
	var written []history.Category
	for _, category := range categories {
		samples, ok := SampleMeals[category]
		if !ok {
			continue
		}
		path := s.Path(category)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		data := strings.Join(samples, "\n") + "\n"
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			return written, fmt.Errorf("failed to write sample candidates for '%s': %w", category, err)
		}
		written = append(written, category)
	}
	return written, nil
}
