package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tipbot/internal/engine"
	"tipbot/internal/source"
)

// Tuning holds the selection and scoring constants. Zero values in a YAML
// file keep the built-in default.
type Tuning struct {
	WindowHours            float64  `yaml:"window_hours"`
	PrimaryThreshold       int      `yaml:"primary_threshold"`
	FallbackThreshold      int      `yaml:"fallback_threshold"`
	MinOdds                float64  `yaml:"min_odds"`
	MaxOdds                float64  `yaml:"max_odds"`
	MaxAllow               float64  `yaml:"max_allow"`
	MaxCount               int      `yaml:"max_count"`
	CooldownMinutes        int      `yaml:"cooldown_minutes"`
	KickoffOffsetHours     float64  `yaml:"kickoff_offset_hours"`
	PerMarket              bool     `yaml:"per_market"`
	StrictVerification     bool     `yaml:"strict_verification"`
	VerifyToleranceMinutes int      `yaml:"verify_tolerance_minutes"`
	MergeToleranceMinutes  int      `yaml:"merge_tolerance_minutes"`
	TopLeagues             []string `yaml:"top_leagues"`
	SecondLeagues          []string `yaml:"second_leagues"`
}

// DefaultTuning returns the built-in constants.
func DefaultTuning() Tuning {
	p := engine.DefaultParams()
	tiers := source.DefaultLeagueTiers()
	return Tuning{
		WindowHours:            p.Window.Hours(),
		PrimaryThreshold:       p.PrimaryThreshold,
		FallbackThreshold:      p.FallbackThreshold,
		MinOdds:                p.MinOdds,
		MaxOdds:                p.MaxOdds,
		MaxAllow:               p.MaxAllow,
		MaxCount:               p.MaxCount,
		CooldownMinutes:        int(p.Cooldown.Minutes()),
		KickoffOffsetHours:     p.KickoffOffset.Hours(),
		VerifyToleranceMinutes: 30,
		MergeToleranceMinutes:  120,
		TopLeagues:             tiers.Top,
		SecondLeagues:          tiers.Second,
	}
}

// LoadTuning reads path over the defaults. An empty path or a missing file
// returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("validate tuning file: %w", err)
	}
	return t, nil
}

// Validate checks that the constants are consistent.
func (t Tuning) Validate() error {
	switch {
	case t.WindowHours <= 0:
		return fmt.Errorf("window_hours must be positive")
	case t.PrimaryThreshold < 0 || t.PrimaryThreshold > 100:
		return fmt.Errorf("primary_threshold must be between 0 and 100")
	case t.FallbackThreshold < 0 || t.FallbackThreshold > t.PrimaryThreshold:
		return fmt.Errorf("fallback_threshold must be between 0 and primary_threshold")
	case t.MinOdds <= 1 || t.MaxOdds < t.MinOdds || t.MaxAllow < t.MaxOdds:
		return fmt.Errorf("odds band must satisfy 1 < min_odds <= max_odds <= max_allow")
	case t.MaxCount < 1:
		return fmt.Errorf("max_count must be at least 1")
	case t.CooldownMinutes < 0:
		return fmt.Errorf("cooldown_minutes must not be negative")
	}
	return nil
}

// Params converts the tuning into selector parameters.
func (t Tuning) Params() engine.Params {
	return engine.Params{
		Window:            hoursDuration(t.WindowHours),
		PrimaryThreshold:  t.PrimaryThreshold,
		FallbackThreshold: t.FallbackThreshold,
		MinOdds:           t.MinOdds,
		MaxOdds:           t.MaxOdds,
		MaxAllow:          t.MaxAllow,
		MaxCount:          t.MaxCount,
		Cooldown:          time.Duration(t.CooldownMinutes) * time.Minute,
		KickoffOffset:     hoursDuration(t.KickoffOffsetHours),
		PerMarket:         t.PerMarket,
	}
}

// LeagueTiers returns the listing confidence table with the configured leagues.
func (t Tuning) LeagueTiers() source.LeagueTiers {
	tiers := source.DefaultLeagueTiers()
	if len(t.TopLeagues) > 0 {
		tiers.Top = t.TopLeagues
	}
	if len(t.SecondLeagues) > 0 {
		tiers.Second = t.SecondLeagues
	}
	return tiers
}

// VerifyTolerance is the kickoff tolerance of reference verification.
func (t Tuning) VerifyTolerance() time.Duration {
	return time.Duration(t.VerifyToleranceMinutes) * time.Minute
}

// MergeTolerance is the kickoff tolerance of the aggregator merge.
func (t Tuning) MergeTolerance() time.Duration {
	return time.Duration(t.MergeToleranceMinutes) * time.Minute
}

func hoursDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
