// Package rotation narrows a candidate list by recent history and draws one
// item at random.
package rotation

import (
	"fmt"
	"math/rand"
	"os"
	"time"
)

// Eligible returns the candidates whose value is not in recent, keeping the
// original order and multiplicity. Exclusion is by value: every copy of a
// recent value is dropped.
func Eligible(all []string, recent map[string]struct{}) []string {
	eligible := make([]string, 0, len(all))
	for _, c := range all {
		if _, used := recent[c]; used {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

// Selector draws items from an eligible list using an injected source.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a Selector. A nil rng gets a time-seeded source.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = NewSeededRand(0, false)
	}
	return &Selector{rng: rng}
}

// SelectOne returns a uniformly random element of eligible. It returns false
// when eligible is empty, which callers treat as "skip this category".
// Duplicate values are weighted by how often they appear.
func (s *Selector) SelectOne(eligible []string) (string, bool) {
	if len(eligible) == 0 {
		return "", false
	}
	return eligible[s.rng.Intn(len(eligible))], true
}

// Pick narrows all by recent and draws from what remains.
func (s *Selector) Pick(all []string, recent map[string]struct{}) (string, bool) {
	return s.SelectOne(Eligible(all, recent))
}

// NewSeededRand creates a seeded random source.
// If seed is 0, uses current time and optionally prints the seed for reproducibility.
func NewSeededRand(seed int64, verbose bool) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
		if verbose {
			fmt.Fprintf(os.Stderr, "Using seed: %d\n", seed)
		}
	}
	return rand.New(rand.NewSource(seed))
}
