package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
	"github.com/riskibarqy/fpl-datasync/internal/usecase"
)

// RefreshRunner runs an on-demand refresh and reports scheduled refresh health.
type RefreshRunner interface {
	RunOnce(ctx context.Context) (usecase.RefreshResult, error)
	Status() usecase.RefreshStatus
}

// PastFixturesSource fetches completed fixtures live.
type PastFixturesSource interface {
	FetchPastFixtures(ctx context.Context) ([]usecase.FixtureDTO, error)
}

type Handler struct {
	publisher *usecase.Publisher
	refresher RefreshRunner
	past      PastFixturesSource
	origins   originPolicy
	logger    *logging.Logger
}

func NewHandler(
	publisher *usecase.Publisher,
	refresher RefreshRunner,
	past PastFixturesSource,
	streamAllowedOrigins []string,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		publisher: publisher,
		refresher: refresher,
		past:      past,
		origins:   newOriginPolicy(streamAllowedOrigins),
		logger:    logger.Named("httpapi"),
	}
}

type healthDTO struct {
	Status  string                 `json:"status"`
	Refresh *usecase.RefreshStatus `json:"refresh,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	out := healthDTO{Status: "ok"}
	if h.refresher != nil {
		status := h.refresher.Status()
		out.Refresh = &status
		if !status.IsReady() {
			// Stale data is still served, so the process stays healthy.
			out.Status = "degraded"
		}
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

type collectionDTO[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newCollectionDTO[T any](items []T) collectionDTO[T] {
	if items == nil {
		items = []T{}
	}
	return collectionDTO[T]{Items: items, Count: len(items)}
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, newCollectionDTO(h.publisher.Teams()))
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	var items []player.Player
	switch sort := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort"))); sort {
	case "":
		items = h.publisher.Players()
	case "points":
		items = h.publisher.PlayersByPoints()
	default:
		writeError(ctx, w, fmt.Errorf("%w: unsupported sort %q, expected points", usecase.ErrInvalidInput, sort))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, newCollectionDTO(items))
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, newCollectionDTO(h.publisher.Fixtures()))
}

type pastFixtureDTO struct {
	ID          int64  `json:"id"`
	KickoffTime string `json:"kickoffTime"`
	TeamH       int    `json:"teamH"`
	TeamA       int    `json:"teamA"`
	HomeScore   int    `json:"homeScore"`
	AwayScore   int    `json:"awayScore"`
}

func (h *Handler) ListPastFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPastFixtures")
	defer span.End()

	if h.past == nil {
		writeError(ctx, w, fmt.Errorf("%w: past fixtures source is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	fixtures, err := h.past.FetchPastFixtures(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch past fixtures failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]pastFixtureDTO, 0, len(fixtures))
	for _, item := range fixtures {
		// FetchPastFixtures only returns fixtures with a kickoff time and both scores.
		items = append(items, pastFixtureDTO{
			ID:          item.ID,
			KickoffTime: *item.KickoffTime,
			TeamH:       item.TeamH,
			TeamA:       item.TeamA,
			HomeScore:   *item.TeamHScore,
			AwayScore:   *item.TeamAScore,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, newCollectionDTO(items))
}

type refreshJobDTO struct {
	Result     usecase.RefreshResult `json:"result"`
	FinishedAt time.Time             `json:"finishedAt"`
}

func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if h.refresher == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresher is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.refresher.RunOnce(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run refresh job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, refreshJobDTO{
		Result:     result,
		FinishedAt: time.Now().UTC(),
	})
}
