// Package verify checks candidate fixtures against an authoritative odds
// listing before they are sent out.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tipbot/internal/model"
	"tipbot/internal/source"
)

// DefaultTolerance is the allowed kickoff difference between a candidate and
// its reference listing entry.
const DefaultTolerance = 30 * time.Minute

// Reference lists the fixtures the bookmaker actually offers.
type Reference interface {
	Name() string
	Fetch(ctx context.Context) ([]model.MatchFacts, error)
}

// Verifier builds a reference index once per cycle.
type Verifier struct {
	refs      []Reference
	tolerance time.Duration
	strict    bool
	log       *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTolerance overrides the kickoff tolerance.
func WithTolerance(d time.Duration) Option {
	return func(v *Verifier) { v.tolerance = d }
}

// WithStrict makes an unavailable reference reject every candidate instead
// of letting all of them through.
func WithStrict(strict bool) Option {
	return func(v *Verifier) { v.strict = strict }
}

// New creates a Verifier reading the given references.
func New(refs []Reference, log *slog.Logger, opts ...Option) *Verifier {
	v := &Verifier{refs: refs, tolerance: DefaultTolerance, log: log}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Index loads every reference. Failing references are logged and skipped.
func (v *Verifier) Index(ctx context.Context) *Index {
	ix := &Index{
		events:    make(map[string][]time.Time),
		tolerance: v.tolerance,
		strict:    v.strict,
	}
	for _, ref := range v.refs {
		facts, rep := source.Collect(ctx, ref, v.log)
		ix.Reports = append(ix.Reports, rep)
		for _, f := range facts {
			k := key(f.Home, f.Away)
			ix.events[k] = append(ix.events[k], f.Kickoff)
			ix.size++
		}
	}
	if ix.size == 0 {
		if v.strict {
			v.log.Warn("reference listing unavailable, rejecting all candidates")
		} else {
			v.log.Warn("reference listing unavailable, verification skipped")
		}
	}
	return ix
}

// Index answers whether a fixture is listed.
type Index struct {
	events    map[string][]time.Time
	size      int
	tolerance time.Duration
	strict    bool

	Reports []source.Report
}

// Available reports whether any reference entry was loaded.
func (ix *Index) Available() bool { return ix.size > 0 }

// Skipped reports whether verification was bypassed because the reference
// was empty.
func (ix *Index) Skipped() bool { return !ix.Available() && !ix.strict }

// Size returns the number of loaded reference entries.
func (ix *Index) Size() int { return ix.size }

// Exists reports whether home vs away is listed with a kickoff within the
// tolerance. Entries without a kickoff match any time.
func (ix *Index) Exists(home, away string, kickoff time.Time) bool {
	if !ix.Available() {
		return !ix.strict
	}
	for _, ko := range ix.events[key(home, away)] {
		if ko.IsZero() || kickoff.IsZero() {
			return true
		}
		d := ko.Sub(kickoff)
		if d < 0 {
			d = -d
		}
		if d <= ix.tolerance {
			return true
		}
	}
	return false
}

func key(home, away string) string {
	return fmt.Sprintf("%s|%s", model.Slug(home), model.Slug(away))
}
