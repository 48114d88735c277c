package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	usecasemock "github.com/riskibarqy/fpl-datasync/internal/mocks/usecase"
	"github.com/riskibarqy/fpl-datasync/internal/usecase"
)

func TestRefreshScheduler_RunOnceTracksStatus(t *testing.T) {
	t.Parallel()

	refresher := usecasemock.NewRefresher(t)
	failure := errors.New("upstream down")
	refresher.On("Refresh", anyContext()).Return(usecase.RefreshResult{}, failure).Times(3)
	refresher.On("Refresh", anyContext()).Return(usecase.RefreshResult{Teams: 20}, nil).Once()

	scheduler := usecase.NewRefreshScheduler(refresher, 0, false, nil)
	ctx := context.Background()

	if status := scheduler.Status(); status.IsReady() {
		t.Fatalf("expected not ready before any refresh")
	}

	for i := 0; i < 3; i++ {
		if _, err := scheduler.RunOnce(ctx); !errors.Is(err, failure) {
			t.Fatalf("expected refresh failure, got=%v", err)
		}
	}
	status := scheduler.Status()
	if status.ConsecutiveFailures != 3 || status.LastError != failure.Error() {
		t.Fatalf("unexpected status after failures: %+v", status)
	}

	result, err := scheduler.RunOnce(ctx)
	if err != nil || result.Teams != 20 {
		t.Fatalf("unexpected result=%+v err=%v", result, err)
	}
	status = scheduler.Status()
	if !status.IsReady() || status.ConsecutiveFailures != 0 || status.LastError != "" {
		t.Fatalf("expected ready status after success, got=%+v", status)
	}
	if status.LastResult.Teams != 20 {
		t.Fatalf("expected last result to be kept, got=%+v", status.LastResult)
	}
}

func TestRefreshScheduler_StartRunsOnStartAndOnInterval(t *testing.T) {
	t.Parallel()

	calls := make(chan struct{}, 16)
	refresher := usecasemock.NewRefresher(t)
	refresher.On("Refresh", anyContext()).Return(func(context.Context) (usecase.RefreshResult, error) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return usecase.RefreshResult{}, nil
	})

	scheduler := usecase.NewRefreshScheduler(refresher, 10*time.Millisecond, true, nil)
	scheduler.Start(context.Background())
	scheduler.Start(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected refresh %d to run", i+1)
		}
	}

	scheduler.Stop()
	scheduler.Stop()
	if !scheduler.Status().IsReady() {
		t.Fatalf("expected ready status, got=%+v", scheduler.Status())
	}
}

func TestRefreshScheduler_ZeroIntervalOnlyRunsOnStart(t *testing.T) {
	t.Parallel()

	refresher := usecasemock.NewRefresher(t)
	refresher.On("Refresh", anyContext()).Return(usecase.RefreshResult{}, nil).Once()

	scheduler := usecase.NewRefreshScheduler(refresher, 0, true, nil)
	scheduler.Start(context.Background())
	scheduler.Stop()

	if scheduler.Status().LastSuccess.IsZero() {
		t.Fatalf("expected the start-up refresh to be recorded")
	}
}

func TestRefreshScheduler_StopWithoutStart(t *testing.T) {
	t.Parallel()

	scheduler := usecase.NewRefreshScheduler(usecasemock.NewRefresher(t), time.Second, false, nil)
	scheduler.Stop()
}
