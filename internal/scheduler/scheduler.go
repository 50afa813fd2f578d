// Package scheduler drives the periodic notification cycle.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"tipbot/internal/dedup"
	"tipbot/internal/engine"
	"tipbot/internal/metrics"
	"tipbot/internal/source"
	"tipbot/internal/storage"
)

// MinInterval is the shortest allowed scan interval.
const MinInterval = time.Minute

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string)
}

// AlertSource produces candidate alerts for one cycle.
type AlertSource interface {
	Alerts(ctx context.Context) ([]engine.Alert, error)
	LastReports() []source.Report
}

// Formatter renders an alert as a chat message.
type Formatter func(engine.Alert) string

// Status describes the scheduler state.
type Status struct {
	Interval     time.Duration
	Paused       bool
	Running      bool
	Cycles       int
	LastCycleID  string
	LastRun      time.Time
	LastDuration time.Duration
	LastSent     int
	LastErr      string
}

// Config holds the scheduler dependencies.
type Config struct {
	Alerts   AlertSource
	Store    storage.Storage
	Ledger   *dedup.Ledger
	Sender   Sender
	Format   Formatter
	Metrics  *metrics.Metrics // optional
	Interval time.Duration
	TopN     int
	Location *time.Location
}

// Scheduler periodically collects alerts and sends the unseen ones to every
// subscriber. Cycles never overlap.
type Scheduler struct {
	alerts  AlertSource
	store   storage.Storage
	ledger  *dedup.Ledger
	sender  Sender
	format  Formatter
	metrics *metrics.Metrics
	log     *slog.Logger
	topN    int
	loc     *time.Location
	now     func() time.Time
	delay   time.Duration

	running atomic.Bool
	reset   chan time.Duration

	mu     sync.Mutex
	status Status
}

// New creates a Scheduler.
func New(cfg Config, log *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	return &Scheduler{
		alerts:  cfg.Alerts,
		store:   cfg.Store,
		ledger:  cfg.Ledger,
		sender:  cfg.Sender,
		format:  cfg.Format,
		metrics: cfg.Metrics,
		log:     log,
		topN:    cfg.TopN,
		loc:     cfg.Location,
		now:     time.Now,
		// Rate limit: ~20 messages/sec max for Telegram
		delay:  50 * time.Millisecond,
		reset:  make(chan time.Duration, 1),
		status: Status{Interval: cfg.Interval},
	}
}

// Run restores persisted settings, runs a cycle immediately and then on
// every tick until ctx is cancelled. The seen ledger is rotated at local
// midnight.
func (s *Scheduler) Run(ctx context.Context) {
	s.restore(ctx)

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc("0 0 * * *", func() { s.rotate(ctx) }); err != nil {
		s.log.Error("schedule daily reset", "error", err)
	}
	c.Start()
	defer c.Stop()

	s.tick(ctx)

	ticker := time.NewTicker(s.Status().Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.reset:
			ticker.Reset(d)
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.Status().Paused {
		s.log.Debug("scheduler paused, skipping cycle")
		return
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("notification cycle", "error", err)
	}
}

// ErrBusy is returned by RunOnce while another cycle is running.
var ErrBusy = errors.New("a cycle is already running")

// RunOnce runs one cycle and returns the number of alerts sent.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.observe("skipped", 0)
		return 0, ErrBusy
	}
	defer s.running.Store(false)

	id := uuid.NewString()
	start := s.now()
	log := s.log.With("cycle", id)
	log.Debug("cycle started")

	sent, err := s.cycle(ctx, log)
	took := s.now().Sub(start)

	s.mu.Lock()
	s.status.Cycles++
	s.status.LastCycleID = id
	s.status.LastRun = start
	s.status.LastDuration = took
	s.status.LastSent = sent
	s.status.LastErr = ""
	if err != nil {
		s.status.LastErr = err.Error()
	}
	s.mu.Unlock()

	result := "ok"
	if err != nil {
		result = "error"
	}
	s.observe(result, took)
	if sent > 0 {
		log.Info("sent notifications", "count", sent, "took", took)
	}
	return sent, err
}

func (s *Scheduler) cycle(ctx context.Context, log *slog.Logger) (int, error) {
	alerts, err := s.alerts.Alerts(ctx)
	if s.metrics != nil {
		s.metrics.ObserveReports(s.alerts.LastReports())
	}
	if err != nil {
		return 0, fmt.Errorf("collect alerts: %w", err)
	}

	subs, err := s.store.ListSubscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscribers: %w", err)
	}
	if s.metrics != nil {
		s.metrics.Subscribers.Set(float64(len(subs)))
	}
	if len(subs) == 0 {
		log.Debug("no subscribers", "alerts", len(alerts))
		return 0, nil
	}

	sent := 0
	for _, a := range alerts {
		if sent >= s.topN || ctx.Err() != nil {
			break
		}
		seen, err := s.ledger.Seen(ctx, s.now(), a.Key)
		if err != nil {
			log.Error("check seen", "key", a.Key, "error", err)
			continue
		}
		if seen {
			continue
		}

		msg := s.format(a)
		for _, chatID := range subs {
			s.sender.SendMessage(chatID, msg)
			time.Sleep(s.delay)
		}
		sent++
		if s.metrics != nil {
			s.metrics.AlertsSent.Inc()
		}

		if err := s.ledger.Mark(ctx, s.now(), a.Key); err != nil {
			log.Error("mark seen", "key", a.Key, "error", err)
		}
	}
	return sent, nil
}

func (s *Scheduler) rotate(ctx context.Context) {
	rotated, err := s.ledger.Rotate(ctx, s.now())
	if err != nil {
		s.log.Error("daily reset", "error", err)
		return
	}
	if rotated {
		s.log.Info("daily seen reset")
	}
}

func (s *Scheduler) observe(result string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveCycle(result, d)
	}
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Running = s.running.Load()
	return st
}

// SetInterval changes and persists the scan interval.
func (s *Scheduler) SetInterval(ctx context.Context, d time.Duration) error {
	if d < MinInterval {
		return fmt.Errorf("interval must be at least %s", MinInterval)
	}
	if err := s.store.SetSetting(ctx, storage.SettingInterval, strconv.Itoa(int(d.Minutes()))); err != nil {
		return fmt.Errorf("save interval: %w", err)
	}
	s.mu.Lock()
	s.status.Interval = d
	s.mu.Unlock()

	select {
	case s.reset <- d:
	default:
		// A pending reset is replaced by the newer value.
		select {
		case <-s.reset:
		default:
		}
		s.reset <- d
	}
	return nil
}

// SetPaused pauses or resumes scheduled cycles.
func (s *Scheduler) SetPaused(ctx context.Context, paused bool) error {
	if err := s.store.SetSetting(ctx, storage.SettingPaused, strconv.FormatBool(paused)); err != nil {
		return fmt.Errorf("save paused: %w", err)
	}
	s.mu.Lock()
	s.status.Paused = paused
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) restore(ctx context.Context) {
	if v, ok, err := s.store.GetSetting(ctx, storage.SettingInterval); err == nil && ok {
		if m, err := strconv.Atoi(v); err == nil && time.Duration(m)*time.Minute >= MinInterval {
			s.mu.Lock()
			s.status.Interval = time.Duration(m) * time.Minute
			s.mu.Unlock()
		}
	}
	if v, ok, err := s.store.GetSetting(ctx, storage.SettingPaused); err == nil && ok {
		paused, _ := strconv.ParseBool(v)
		s.mu.Lock()
		s.status.Paused = paused
		s.mu.Unlock()
	}
}
