package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
	"github.com/riskibarqy/fpl-datasync/internal/usecase"
)

type refreshRunnerStub struct {
	result usecase.RefreshResult
	err    error
	status usecase.RefreshStatus
	calls  int
}

func (s *refreshRunnerStub) RunOnce(context.Context) (usecase.RefreshResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *refreshRunnerStub) Status() usecase.RefreshStatus {
	return s.status
}

type pastFixturesStub struct {
	fixtures []usecase.FixtureDTO
	err      error
}

func (s pastFixturesStub) FetchPastFixtures(context.Context) ([]usecase.FixtureDTO, error) {
	return s.fixtures, s.err
}

type envelope[T any] struct {
	APIVersion string `json:"apiVersion"`
	Data       T      `json:"data"`
	Error      *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
	} `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response body: %v body=%s", err, rec.Body.String())
	}
	return out
}

func newTestRouter(t *testing.T, refresher RefreshRunner, past PastFixturesSource) (http.Handler, *usecase.Publisher) {
	t.Helper()
	publisher := usecase.NewPublisher()
	t.Cleanup(publisher.Close)

	handler := NewHandler(publisher, refresher, past, []string{"*"}, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), []string{"*"}, "secret"), publisher
}

func serve(router http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz_DegradedBeforeFirstRefresh(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, &refreshRunnerStub{}, nil)
	rec := serve(router, http.MethodGet, "/healthz", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope[healthDTO](t, rec)
	if body.Data.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", body.Data.Status)
	}
}

func TestHealthz_OKAfterSuccessfulRefresh(t *testing.T) {
	t.Parallel()

	refresher := &refreshRunnerStub{status: usecase.RefreshStatus{LastSuccess: time.Now()}}
	router, _ := newTestRouter(t, refresher, nil)
	rec := serve(router, http.MethodGet, "/healthz", nil)

	body := decodeEnvelope[healthDTO](t, rec)
	if body.Data.Status != "ok" {
		t.Fatalf("expected ok status, got %q", body.Data.Status)
	}
}

func TestListTeams_ServesCurrentProjection(t *testing.T) {
	t.Parallel()

	router, publisher := newTestRouter(t, nil, nil)

	rec := serve(router, http.MethodGet, "/v1/teams", nil)
	empty := decodeEnvelope[collectionDTO[team.Team]](t, rec)
	if empty.Data.Count != 0 || empty.Data.Items == nil {
		t.Fatalf("expected empty non-null items before first projection, got %+v", empty.Data)
	}

	publisher.PublishTeams([]team.Team{{ID: 1, Index: 1, Name: "A", Code: 3}})
	rec = serve(router, http.MethodGet, "/v1/teams", nil)
	body := decodeEnvelope[collectionDTO[team.Team]](t, rec)
	if body.Data.Count != 1 || body.Data.Items[0].Name != "A" {
		t.Fatalf("unexpected teams: %+v", body.Data)
	}
}

func TestListPlayers_SortByPoints(t *testing.T) {
	t.Parallel()

	router, publisher := newTestRouter(t, nil, nil)
	publisher.PublishPlayers([]player.Player{
		{ID: 1, Name: "Low", Points: 10},
		{ID: 2, Name: "High", Points: 90},
	})

	rec := serve(router, http.MethodGet, "/v1/players?sort=points", nil)
	body := decodeEnvelope[collectionDTO[player.Player]](t, rec)
	if body.Data.Count != 2 || body.Data.Items[0].ID != 2 {
		t.Fatalf("expected highest scorer first, got %+v", body.Data.Items)
	}

	rec = serve(router, http.MethodGet, "/v1/players", nil)
	body = decodeEnvelope[collectionDTO[player.Player]](t, rec)
	if body.Data.Items[0].ID != 1 {
		t.Fatalf("expected stored order without sort, got %+v", body.Data.Items)
	}
}

func TestListPlayers_UnknownSortIsRejected(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, nil, nil)
	rec := serve(router, http.MethodGet, "/v1/players?sort=price", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestListPastFixtures_MapsCompletedFixtures(t *testing.T) {
	t.Parallel()

	kickoff := "2024-08-16T19:00:00Z"
	home, away := 2, 1
	router, _ := newTestRouter(t, nil, pastFixturesStub{fixtures: []usecase.FixtureDTO{
		{ID: 500, KickoffTime: &kickoff, TeamH: 1, TeamA: 2, TeamHScore: &home, TeamAScore: &away},
	}})

	rec := serve(router, http.MethodGet, "/v1/fixtures/past", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope[collectionDTO[pastFixtureDTO]](t, rec)
	if body.Data.Count != 1 {
		t.Fatalf("expected one fixture, got %+v", body.Data)
	}
	got := body.Data.Items[0]
	if got.ID != 500 || got.KickoffTime != kickoff || got.HomeScore != 2 || got.AwayScore != 1 {
		t.Fatalf("unexpected fixture: %+v", got)
	}
}

func TestListPastFixtures_UpstreamFailure(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, nil, pastFixturesStub{err: errors.New("fetch fixtures: upstream timeout")})
	rec := serve(router, http.MethodGet, "/v1/fixtures/past", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestRunRefreshJob_RequiresToken(t *testing.T) {
	t.Parallel()

	refresher := &refreshRunnerStub{}
	router, _ := newTestRouter(t, refresher, nil)

	rec := serve(router, http.MethodPost, "/v1/internal/jobs/refresh", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if refresher.calls != 0 {
		t.Fatalf("refresh must not run without a token")
	}
}

func TestRunRefreshJob_ReturnsResult(t *testing.T) {
	t.Parallel()

	refresher := &refreshRunnerStub{result: usecase.RefreshResult{Teams: 20, Players: 600, Fixtures: 380}}
	router, _ := newTestRouter(t, refresher, nil)

	rec := serve(router, http.MethodPost, "/v1/internal/jobs/refresh", map[string]string{internalJobTokenHeader: "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope[refreshJobDTO](t, rec)
	if body.Data.Result.Players != 600 {
		t.Fatalf("unexpected refresh result: %+v", body.Data.Result)
	}
}

func TestRunRefreshJob_PropagatesFailure(t *testing.T) {
	t.Parallel()

	refresher := &refreshRunnerStub{err: errors.New("replace cache: duplicate record")}
	router, _ := newTestRouter(t, refresher, nil)

	rec := serve(router, http.MethodPost, "/v1/internal/jobs/refresh", map[string]string{internalJobTokenHeader: "secret"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	t.Parallel()

	// A nil publisher makes the teams handler panic.
	handler := NewHandler(nil, nil, nil, nil, logging.NewNop())
	router := NewRouter(handler, logging.NewNop(), nil, "")

	rec := serve(router, http.MethodGet, "/v1/teams", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}
