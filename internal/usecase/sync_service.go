package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
	"github.com/riskibarqy/fpl-datasync/internal/platform/resilience"
)

const refreshFlightKey = "refresh"

type RefreshResult struct {
	Teams                  int   `json:"teams"`
	Players                int   `json:"players"`
	Fixtures               int   `json:"fixtures"`
	SkippedFixtures        int   `json:"skipped_fixtures"`
	UnresolvedPlayers      int   `json:"unresolved_players"`
	UnresolvedFixtureTeams int   `json:"unresolved_fixture_teams"`
	DurationMs             int64 `json:"duration_ms"`
	Shared                 bool  `json:"shared"`
}

// SyncService replaces the local cache with a fresh remote snapshot.
type SyncService struct {
	remote RemoteDataSource
	store  localstore.Store
	logger *logging.Logger
	now    func() time.Time
	flight resilience.SingleFlight[RefreshResult]
}

func NewSyncService(remote RemoteDataSource, store localstore.Store, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		remote: remote,
		store:  store,
		logger: logger.Named("sync"),
		now:    time.Now,
	}
}

// Refresh fetches teams, players and fixtures and replaces every cached record in one transaction.
// A failure leaves the cache untouched. A caller arriving while a refresh runs gets that refresh's result.
// The shared refresh is cancelled only when every waiting caller's ctx has ended.
func (s *SyncService) Refresh(ctx context.Context) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.Refresh")
	defer span.End()

	result, err, shared := s.flight.DoContext(ctx, refreshFlightKey, s.refresh)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RefreshResult{}, err
	}

	result.Shared = shared
	span.SetAttributes(
		attribute.Int("fpl.teams", result.Teams),
		attribute.Int("fpl.players", result.Players),
		attribute.Int("fpl.fixtures", result.Fixtures),
		attribute.Bool("fpl.refresh_shared", shared),
	)
	return result, nil
}

// RefreshInFlight reports whether a refresh is running.
func (s *SyncService) RefreshInFlight() bool {
	return s.flight.InFlight(refreshFlightKey)
}

func (s *SyncService) refresh(ctx context.Context) (RefreshResult, error) {
	startedAt := s.now()

	bootstrap, fixtures, err := s.fetchAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "refresh aborted, cache left unchanged", "error", err)
		return RefreshResult{}, err
	}

	var result RefreshResult
	err = s.store.Write(ctx, func(tx localstore.Tx) error {
		result = RefreshResult{}
		return replaceAll(tx, bootstrap, fixtures, &result)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "refresh transaction failed, cache left unchanged", "error", err)
		return RefreshResult{}, fmt.Errorf("replace cached reference data: %w", err)
	}

	result.DurationMs = s.now().Sub(startedAt).Milliseconds()
	s.logger.InfoContext(ctx, "refresh completed",
		"teams", result.Teams,
		"players", result.Players,
		"fixtures", result.Fixtures,
		"skipped_fixtures", result.SkippedFixtures,
		"unresolved_players", result.UnresolvedPlayers,
		"unresolved_fixture_teams", result.UnresolvedFixtureTeams,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

// fetchAll runs both remote calls concurrently; the first failure cancels the other.
func (s *SyncService) fetchAll(ctx context.Context) (BootstrapStaticInfo, []FixtureDTO, error) {
	var (
		bootstrap BootstrapStaticInfo
		fixtures  []FixtureDTO
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		out, err := s.remote.FetchBootstrapStaticInfo(ctx)
		if err != nil {
			return fmt.Errorf("fetch bootstrap static info: %w", err)
		}
		bootstrap = out
		return nil
	})
	p.Go(func(ctx context.Context) error {
		out, err := s.remote.FetchFixtures(ctx)
		if err != nil {
			return fmt.Errorf("fetch fixtures: %w", err)
		}
		fixtures = out
		return nil
	})
	if err := p.Wait(); err != nil {
		return BootstrapStaticInfo{}, nil, err
	}

	return bootstrap, fixtures, nil
}

func replaceAll(tx localstore.Tx, bootstrap BootstrapStaticInfo, fixtures []FixtureDTO, result *RefreshResult) error {
	tx.DeleteAll(localstore.AllKinds...)

	for i, dto := range bootstrap.Teams {
		record := team.Record{
			ID:    dto.ID,
			Index: i + 1,
			Name:  dto.Name,
			Code:  dto.Code,
		}
		if err := tx.InsertTeam(record); err != nil {
			return fmt.Errorf("team %d: %w", dto.ID, err)
		}
		result.Teams++
	}

	teams := tx.Teams(nil)
	for _, dto := range bootstrap.Elements {
		record := player.Record{
			ID:          dto.ID,
			FirstName:   dto.FirstName,
			SecondName:  dto.SecondName,
			Code:        dto.Code,
			TeamCode:    dto.TeamCode,
			TotalPoints: dto.TotalPoints,
			NowCost:     dto.NowCost,
			GoalsScored: dto.GoalsScored,
			Assists:     dto.Assists,
		}
		// Team codes are assumed unique; on a collision the first team wins.
		if ref, ok := team.FindByCode(teams, dto.TeamCode); ok {
			record.Team = ref
		} else {
			result.UnresolvedPlayers++
		}
		if err := tx.InsertPlayer(record); err != nil {
			return fmt.Errorf("player %d: %w", dto.ID, err)
		}
		result.Players++
	}

	teams = tx.Teams(nil)
	for _, dto := range fixtures {
		if !dto.HasKickoff() {
			result.SkippedFixtures++
			continue
		}

		record := fixture.Record{
			ID:          dto.ID,
			KickoffTime: *dto.KickoffTime,
		}
		if dto.TeamHScore != nil {
			record.HomeScore = *dto.TeamHScore
		}
		if dto.TeamAScore != nil {
			record.AwayScore = *dto.TeamAScore
		}
		if ref, ok := team.FindByIndex(teams, dto.TeamH); ok {
			record.HomeTeam = ref
		} else {
			result.UnresolvedFixtureTeams++
		}
		if ref, ok := team.FindByIndex(teams, dto.TeamA); ok {
			record.AwayTeam = ref
		} else {
			result.UnresolvedFixtureTeams++
		}

		if err := tx.InsertFixture(record); err != nil {
			return fmt.Errorf("fixture %d: %w", dto.ID, err)
		}
		result.Fixtures++
	}

	return nil
}

// FetchPastFixtures fetches fixtures live and keeps the scheduled ones with both scores present.
// It never reads or writes the cache.
func (s *SyncService) FetchPastFixtures(ctx context.Context) ([]FixtureDTO, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncService.FetchPastFixtures")
	defer span.End()

	fixtures, err := s.remote.FetchFixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}

	out := make([]FixtureDTO, 0, len(fixtures))
	for _, item := range fixtures {
		if item.IsCompleted() {
			out = append(out, item)
		}
	}
	return out, nil
}
