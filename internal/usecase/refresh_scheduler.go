package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
)

// Refresher runs one full cache refresh.
type Refresher interface {
	Refresh(ctx context.Context) (RefreshResult, error)
}

// RefreshStatus describes the recent health of scheduled refreshes.
type RefreshStatus struct {
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastError           string        `json:"last_error,omitempty"`
	LastAttempt         time.Time     `json:"last_attempt"`
	LastSuccess         time.Time     `json:"last_success"`
	LastResult          RefreshResult `json:"last_result"`
}

// IsReady reports whether at least one refresh succeeded and refreshes are not failing repeatedly.
func (s RefreshStatus) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// RefreshScheduler refreshes the cache on an interval. A zero interval disables the loop;
// RunOnce still works.
type RefreshScheduler struct {
	refresher  Refresher
	interval   time.Duration
	runOnStart bool
	logger     *logging.Logger
	now        func() time.Time

	startMu sync.Mutex
	started bool
	done    chan struct{}
	stopped chan struct{}

	stopOnce sync.Once

	statusMu sync.RWMutex
	status   RefreshStatus
}

func NewRefreshScheduler(refresher Refresher, interval time.Duration, runOnStart bool, logger *logging.Logger) *RefreshScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshScheduler{
		refresher:  refresher,
		interval:   interval,
		runOnStart: runOnStart,
		logger:     logger.Named("scheduler"),
		now:        time.Now,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Start launches the refresh loop. It returns immediately; later calls are no-ops.
func (s *RefreshScheduler) Start(ctx context.Context) {
	s.startMu.Lock()
	if s.started {
		s.startMu.Unlock()
		return
	}
	s.started = true
	s.startMu.Unlock()

	go func() {
		defer close(s.stopped)

		if s.runOnStart {
			_, _ = s.RunOnce(ctx)
		}
		if s.interval <= 0 {
			s.logger.Info("periodic refresh disabled")
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.logger.Info("refresh scheduler started", "interval", s.interval.String())

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("refresh scheduler stopped")
				return
			case <-s.done:
				s.logger.Info("refresh scheduler stopped")
				return
			case <-ticker.C:
				_, _ = s.RunOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-progress refresh to return.
func (s *RefreshScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})

	s.startMu.Lock()
	started := s.started
	s.startMu.Unlock()
	if started {
		<-s.stopped
	}
}

// RunOnce refreshes now and records the outcome in Status.
func (s *RefreshScheduler) RunOnce(ctx context.Context) (RefreshResult, error) {
	startedAt := s.now()
	s.statusMu.Lock()
	s.status.LastAttempt = startedAt
	s.statusMu.Unlock()

	result, err := s.refresher.Refresh(ctx)

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if err != nil {
		s.status.ConsecutiveFailures++
		s.status.LastError = err.Error()
		s.logger.ErrorContext(ctx, "scheduled refresh failed",
			"consecutive_failures", s.status.ConsecutiveFailures,
			"error", err,
		)
		return RefreshResult{}, err
	}

	s.status.ConsecutiveFailures = 0
	s.status.LastError = ""
	s.status.LastSuccess = startedAt
	s.status.LastResult = result
	return result, nil
}

func (s *RefreshScheduler) Status() RefreshStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}
