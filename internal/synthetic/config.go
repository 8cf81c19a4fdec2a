// Package synthetic generates raw competition results shaped like the IFSC
// results export, for demos and end-to-end tests of the pipeline.
package synthetic

import "fmt"

// Config holds the shape of a generated dataset.
type Config struct {
	FirstYear     int      // Season of the first event
	Years         int      // Number of consecutive seasons
	EventsPerYear int      // Events per season
	Athletes      int      // Size of the athlete pool
	Categories    []string // Discipline categories, one event per category per slot
	Countries     []string // Assigned to athletes round robin
	Participation float64  // Probability that an athlete enters an event
	SemiCut       int      // Competitors advancing to the semi-final
	FinalCut      int      // Competitors advancing to the final
	Seed          int64    // Seed for every random draw
	Workers       int      // Events generated concurrently
}

// DefaultConfig returns a three-season dataset with one watched athlete id in range.
func DefaultConfig() Config {
	return Config{
		FirstYear:     2019,
		Years:         3,
		EventsPerYear: 8,
		Athletes:      60,
		Categories:    []string{"BOULDER Women", "LEAD Women"},
		Countries:     []string{"JPN", "FRA", "SLO", "AUT", "USA", "GER", "KOR", "ITA"},
		Participation: 0.7,
		SemiCut:       20,
		FinalCut:      8,
		Seed:          42,
		Workers:       4,
	}
}

func (c Config) validate() error {
	switch {
	case c.Years <= 0 || c.EventsPerYear <= 0:
		return fmt.Errorf("%w: years and events per year must be positive", ErrInvalidConfig)
	case c.Athletes <= 0:
		return fmt.Errorf("%w: athletes must be positive", ErrInvalidConfig)
	case len(c.Categories) == 0 || len(c.Countries) == 0:
		return fmt.Errorf("%w: categories and countries must not be empty", ErrInvalidConfig)
	case c.Participation <= 0 || c.Participation > 1:
		return fmt.Errorf("%w: participation must be in (0, 1], got %v", ErrInvalidConfig, c.Participation)
	case c.FinalCut <= 0 || c.SemiCut < c.FinalCut:
		return fmt.Errorf("%w: need 0 < final cut <= semi cut", ErrInvalidConfig)
	}
	return nil
}
