// Package scheduler drives the periodic sync sweep and the daily expiry
// reminder. The sweep interval and enablement come from dynamic config and
// are re-read every tick, so operators can retune a live instance without a
// restart.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"alphabit/internal/config"
	cronrunner "alphabit/internal/cron"
	"alphabit/internal/models"
	"alphabit/internal/service"
)

// Controller lifecycle states: Idle until Start, Running until Stop.
type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
)

type Status struct {
	State        State                    `json:"state"`
	LastRunAt    *time.Time               `json:"lastRunAt"`
	LastResult   *service.FleetSyncResult `json:"lastResult"`
	LastCycleErr string                   `json:"lastCycleError,omitempty"`
}

type Scheduler struct {
	Sync     *service.TradeSyncService
	Config   *service.ConfigStoreService
	Notifier *service.NotificationService
	Logger   *zap.Logger
	Conf     config.SchedulerConfig

	// Sleep is swappable in tests; defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration)

	cron *cronrunner.Runner

	mu           sync.Mutex
	state        State
	lastRunAt    *time.Time
	lastResult   *service.FleetSyncResult
	lastCycleErr string

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Start launches the sync loop goroutine and the reminder cron. The ctx
// bounds every cycle; Stop (or ctx cancellation) shuts both down.
func (s *Scheduler) Start(ctx context.Context) error {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	s.cron = cronrunner.New(s.Logger, ctx)
	if _, err := s.cron.Add("expiry-reminder", s.Conf.ExpiryReminderCron, s.runExpiryReminder); err != nil {
		return err
	}
	s.cron.Start()

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()

	go s.syncLoop(ctx)
	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			s.cron.Stop()
		}
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
	})
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	if state == "" {
		state = StateIdle
	}
	return Status{
		State:        state,
		LastRunAt:    s.lastRunAt,
		LastResult:   s.lastResult,
		LastCycleErr: s.lastCycleErr,
	}
}

// syncLoop waits out the configured interval, then runs one cycle if the
// dynamic enabled flag allows it. Interval changes take effect on the next
// tick.
func (s *Scheduler) syncLoop(ctx context.Context) {
	defer close(s.done)
	for {
		interval := s.currentInterval(ctx)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		if !s.Config.GetBool(ctx, service.KeySyncSchedulerEnabled, s.Conf.Enabled) {
			continue
		}
		if _, err := s.RunSyncCycle(ctx); err != nil {
			if s.Logger != nil {
				s.Logger.Error("sync cycle failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler) currentInterval(ctx context.Context) time.Duration {
	fallback := s.Conf.SyncInterval
	if fallback <= 0 {
		fallback = 15 * time.Minute
	}
	minutes := s.Config.GetInt(ctx, service.KeySyncIntervalMinutes, int(fallback.Minutes()))
	if minutes < 1 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}

// settleDelay reads the post-update wait. The dynamic value is stored in
// milliseconds.
func (s *Scheduler) settleDelay(ctx context.Context) time.Duration {
	fallback := s.Conf.SettleDelay
	if fallback < 0 {
		fallback = 0
	}
	ms := s.Config.GetInt(ctx, service.KeySyncDelayAfterUpdate, int(fallback.Milliseconds()))
	if ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// RunSyncCycle executes one full sweep: poke the indexer, wait for it to
// settle, sync every active user, then fan out transition notifications.
// Concurrent cycles (a manual trigger racing the loop) are not excluded:
// every write downstream is a full overwrite, so racing recomputations
// converge on the same state. A panic inside the sweep is recovered so the
// loop keeps its cadence.
func (s *Scheduler) RunSyncCycle(ctx context.Context) (fleet service.FleetSyncResult, err error) {
	started := time.Now().UTC()
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("sync cycle panicked")
			if s.Logger != nil {
				s.Logger.Error("sync cycle panicked", zap.Any("panic", rec))
			}
		}
		s.mu.Lock()
		s.lastRunAt = &started
		if err != nil {
			s.lastCycleErr = err.Error()
		} else {
			s.lastCycleErr = ""
		}
		s.mu.Unlock()
	}()

	s.Sync.TriggerIndexerUpdate(ctx)
	if delay := s.settleDelay(ctx); delay > 0 {
		s.sleep(ctx, delay)
	}

	fleet, err = s.Sync.SyncAllActiveUsers(ctx)
	if err != nil {
		return fleet, err
	}

	s.mu.Lock()
	s.lastResult = &fleet
	s.mu.Unlock()

	if s.Logger != nil {
		s.Logger.Info("sync cycle finished",
			zap.Int("users", fleet.UsersProcessed),
			zap.Int("created", fleet.TotalCreated),
			zap.Int("updated", fleet.TotalUpdated),
			zap.Int("errors", fleet.Errors),
			zap.Duration("took", time.Since(started)),
		)
	}

	if s.Notifier != nil {
		s.Notifier.SendTemplated(ctx, models.TemplateTradeSettled, fleet.SettledFids)
		s.Notifier.SendTemplated(ctx, models.TemplateTradeExpired, fleet.ExpiredFids)
	}
	return fleet, nil
}

// TriggerManualSync runs one on-demand cycle synchronously and returns its
// totals, even while the scheduled loop has a cycle in flight.
func (s *Scheduler) TriggerManualSync(ctx context.Context) (service.FleetSyncResult, error) {
	return s.RunSyncCycle(ctx)
}

// runExpiryReminder notifies users holding open trades that expire within
// the configured window. Fires on the reminder cron, typically once a day.
func (s *Scheduler) runExpiryReminder(ctx context.Context) {
	if !s.Config.GetBool(ctx, service.KeyExpiryReminderEnabled, true) {
		return
	}
	fallback := s.Conf.ExpiryReminderWindow
	if fallback <= 0 {
		fallback = time.Hour
	}
	minutes := s.Config.GetInt(ctx, service.KeyExpiryReminderWindow, int(fallback.Minutes()))
	if minutes < 1 {
		minutes = int(fallback.Minutes())
	}
	window := time.Duration(minutes) * time.Minute

	fids, err := s.Sync.ExpiringTradeFids(ctx, window)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("expiry reminder query failed", zap.Error(err))
		}
		return
	}
	if len(fids) == 0 {
		return
	}
	if s.Logger != nil {
		s.Logger.Info("sending expiry reminders",
			zap.Int("fids", len(fids)),
			zap.Duration("window", window),
		)
	}
	if s.Notifier != nil {
		s.Notifier.SendTemplated(ctx, models.TemplateTradeExpiringSoon, fids)
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) {
	if s.Sleep != nil {
		s.Sleep(ctx, d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
