// Package dedup keeps the daily record of tips already sent.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tipbot/internal/model"
)

// SeenStore persists seen keys.
type SeenStore interface {
	MarkSeen(ctx context.Context, key string, at time.Time) error
	IsSeen(ctx context.Context, key string) (bool, error)
	ClearSeen(ctx context.Context, before time.Time) (int64, error)
}

// Key identifies a tip by folded match name, market and kickoff minute.
func Key(match, market string, kickoff time.Time) string {
	ko := ""
	if !kickoff.IsZero() {
		ko = kickoff.UTC().Format("200601021504")
	}
	return fmt.Sprintf("%s|%s|%s", model.Slug(match), strings.ToLower(strings.TrimSpace(market)), ko)
}

// Ledger forgets every key when the local calendar date changes.
type Ledger struct {
	store SeenStore
	loc   *time.Location

	mu  sync.Mutex
	day string
}

// NewLedger creates a Ledger whose days follow loc.
func NewLedger(store SeenStore, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{store: store, loc: loc}
}

// Rotate clears keys recorded before today's local midnight when the date
// has changed since the last call. It reports whether a rotation happened.
func (l *Ledger) Rotate(ctx context.Context, now time.Time) (bool, error) {
	local := now.In(l.loc)
	day := local.Format(time.DateOnly)

	l.mu.Lock()
	defer l.mu.Unlock()
	if day == l.day {
		return false, nil
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, l.loc)
	if _, err := l.store.ClearSeen(ctx, midnight); err != nil {
		return false, fmt.Errorf("clear seen: %w", err)
	}
	l.day = day
	return true, nil
}

// Seen reports whether key was recorded today.
func (l *Ledger) Seen(ctx context.Context, now time.Time, key string) (bool, error) {
	if _, err := l.Rotate(ctx, now); err != nil {
		return false, err
	}
	return l.store.IsSeen(ctx, key)
}

// Mark records key as sent at now.
func (l *Ledger) Mark(ctx context.Context, now time.Time, key string) error {
	if _, err := l.Rotate(ctx, now); err != nil {
		return err
	}
	return l.store.MarkSeen(ctx, key, now)
}
