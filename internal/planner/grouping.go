package planner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"meal-rotation/internal/history"
)

// PeriodGroup lists the categories planned under one period.
type PeriodGroup struct {
	Period     history.Period     `yaml:"period"`
	Categories []history.Category `yaml:"categories"`
}

// Grouping is the ordered Period -> Category layout of a week.
type Grouping []PeriodGroup

type groupingFile struct {
	Periods Grouping `yaml:"periods"`
}

// DefaultGrouping is used when no periods file exists.
func DefaultGrouping() Grouping {
	return Grouping{
		{Period: "weekday", Categories: []history.Category{"weekday_lunch", "weekday_dinner"}},
		{Period: "weekend", Categories: []history.Category{"weekend_brunch", "weekend_dinner"}},
	}
}

// Categories returns every category in grouping order.
func (g Grouping) Categories() []history.Category {
	var out []history.Category
	for _, group := range g {
		out = append(out, group.Categories...)
	}
	return out
}

// Validate rejects groups with blank names.
func (g Grouping) Validate() error {
	if len(g) == 0 {
		return fmt.Errorf("grouping has no periods")
	}
	for i, group := range g {
		if group.Period == "" {
			return fmt.Errorf("period %d has no name", i+1)
		}
		for _, c := range group.Categories {
			if c == "" {
				return fmt.Errorf("period '%s' has a blank category", group.Period)
			}
		}
	}
	return nil
}

// LoadGrouping reads a YAML periods file. A missing file yields the default.
func LoadGrouping(path string) (Grouping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultGrouping(), nil
		}
		return nil, fmt.Errorf("failed to read periods file: %w", err)
	}

	var file groupingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse periods file %s: %w", path, err)
	}
	if err := file.Periods.Validate(); err != nil {
		return nil, fmt.Errorf("invalid periods file %s: %w", path, err)
	}
	return file.Periods, nil
}

// SaveGrouping writes g as a YAML periods file.
func SaveGrouping(path string, g Grouping) error {
	data, err := yaml.Marshal(groupingFile{Periods: g})
	if err != nil {
		return fmt.Errorf("failed to marshal periods: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create periods directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write periods file: %w", err)
	}
	return nil
}
