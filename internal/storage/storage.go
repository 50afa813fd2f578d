// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"time"
)

// Setting names shared by the bot and the scheduler.
const (
	SettingInterval = "scan_interval_min"
	SettingPaused   = "paused"
	SettingProfile  = "profile"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	AddSubscriber(ctx context.Context, chatID int64) (bool, error)
	RemoveSubscriber(ctx context.Context, chatID int64) (bool, error)
	ListSubscribers(ctx context.Context) ([]int64, error)

	MarkSeen(ctx context.Context, key string, at time.Time) error
	IsSeen(ctx context.Context, key string) (bool, error)
	ClearSeen(ctx context.Context, before time.Time) (int64, error)

	GetSetting(ctx context.Context, name string) (string, bool, error)
	SetSetting(ctx context.Context, name, value string) error

	Close() error
}
