package scoring

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-profiler/internal/evidence"
	"github.com/nerrad567/gray-logic-profiler/internal/infrastructure/config"
)

const day = 24 * time.Hour

// Config is the scoring calibration.
type Config struct {
	Weights map[evidence.SourceDomain]float64

	DiversityBonus       float64
	DiversityMinSources  int
	DatapointBonus       float64
	RecencyBonus         float64
	FingerprintBonus     float64
	ContradictionPenalty float64
	SingleSourcePenalty  float64
	OutdatedPenalty      float64

	// FreshnessWindow earns the recency bonus; Staleness triggers the
	// outdated penalty. Both are measured from the newest observation.
	FreshnessWindow time.Duration
	Staleness       time.Duration

	MinScore           float64
	MaxScore           float64
	ConfirmedThreshold float64
	ProposedThreshold  float64

	Levels Levels
}

// Levels are the lower bounds of the confidence levels above poor.
type Levels struct {
	Excellent float64
	VeryGood  float64
	Good      float64
	Fair      float64
}

// DefaultConfig returns the shipped calibration.
func DefaultConfig() Config {
	cfg, err := FromConfig(config.DefaultScoring())
	if err != nil {
		panic(fmt.Sprintf("scoring: default calibration invalid: %v", err))
	}
	return cfg
}

// FromConfig converts the YAML calibration. Unknown domain names are
// rejected so a typo cannot silently zero a weight.
func FromConfig(sc config.ScoringConfig) (Config, error) {
	cfg := Config{
		Weights:              make(map[evidence.SourceDomain]float64, len(sc.Weights)),
		DiversityBonus:       sc.DiversityBonus,
		DiversityMinSources:  sc.DiversityMinSources,
		DatapointBonus:       sc.DatapointBonus,
		RecencyBonus:         sc.RecencyBonus,
		FingerprintBonus:     sc.FingerprintBonus,
		ContradictionPenalty: sc.ContradictionPenalty,
		SingleSourcePenalty:  sc.SingleSourcePenalty,
		OutdatedPenalty:      sc.OutdatedPenalty,
		FreshnessWindow:      time.Duration(sc.FreshnessWindowDays) * day,
		Staleness:            time.Duration(sc.StalenessDays) * day,
		MinScore:             sc.MinScore,
		MaxScore:             sc.MaxScore,
		ConfirmedThreshold:   sc.ConfirmedThreshold,
		ProposedThreshold:    sc.ProposedThreshold,
		Levels: Levels{
			Excellent: sc.LevelThresholds.Excellent,
			VeryGood:  sc.LevelThresholds.VeryGood,
			Good:      sc.LevelThresholds.Good,
			Fair:      sc.LevelThresholds.Fair,
		},
	}

	names := make([]string, 0, len(sc.Weights))
	for name := range sc.Weights {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		d := evidence.SourceDomain(name)
		if !d.Valid() {
			errs = append(errs, fmt.Errorf("%w: unknown domain %q in weights", ErrInvalidConfig, name))
			continue
		}
		cfg.Weights[d] = sc.Weights[name]
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the calibration for internal consistency.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	for _, d := range evidence.AllDomains() {
		if c.Weights[d] < 0 {
			add("negative weight for %s", d)
		}
	}
	for _, v := range []float64{
		c.DiversityBonus, c.DatapointBonus, c.RecencyBonus, c.FingerprintBonus,
		c.ContradictionPenalty, c.SingleSourcePenalty, c.OutdatedPenalty,
	} {
		if v < 0 {
			add("bonuses and penalties are magnitudes and must not be negative")
			break
		}
	}
	if c.DiversityMinSources < 2 {
		add("diversity needs at least 2 sources, got %d", c.DiversityMinSources)
	}
	if c.MinScore >= c.MaxScore {
		add("min score %v must be below max score %v", c.MinScore, c.MaxScore)
	}
	if c.ProposedThreshold > c.ConfirmedThreshold {
		add("proposed threshold %v exceeds confirmed threshold %v", c.ProposedThreshold, c.ConfirmedThreshold)
	}
	if c.FreshnessWindow > c.Staleness {
		add("freshness window exceeds staleness")
	}
	l := c.Levels
	if l.Excellent < l.VeryGood || l.VeryGood < l.Good || l.Good < l.Fair {
		add("levels must be ordered excellent >= very_good >= good >= fair")
	}
	return errors.Join(errs...)
}

// Weight returns the weight of domain d, zero when unconfigured.
func (c Config) Weight(d evidence.SourceDomain) float64 {
	return c.Weights[d]
}
