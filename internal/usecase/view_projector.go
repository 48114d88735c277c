package usecase

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
	"github.com/riskibarqy/fpl-datasync/internal/platform/logging"
)

// RecordFeeds is the observation side of the local cache.
type RecordFeeds interface {
	ObserveTeams(ctx context.Context) <-chan []team.Record
	ObservePlayers(ctx context.Context) <-chan []player.Record
	ObserveFixtures(ctx context.Context) <-chan []fixture.Record
}

// ViewProjector maps every committed cache snapshot to its presentation view and publishes it.
type ViewProjector struct {
	feeds     RecordFeeds
	publisher *Publisher
	location  *time.Location
	logger    *logging.Logger
}

func NewViewProjector(feeds RecordFeeds, publisher *Publisher, location *time.Location, logger *logging.Logger) *ViewProjector {
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ViewProjector{
		feeds:     feeds,
		publisher: publisher,
		location:  location,
		logger:    logger.Named("projector"),
	}
}

// Run projects until ctx is cancelled or the feeds close. Each collection runs on its own goroutine.
func (p *ViewProjector) Run(ctx context.Context) {
	var wg conc.WaitGroup

	wg.Go(func() {
		for records := range p.feeds.ObserveTeams(ctx) {
			p.publisher.PublishTeams(team.ProjectAll(records))
		}
	})
	wg.Go(func() {
		for records := range p.feeds.ObservePlayers(ctx) {
			p.publisher.PublishPlayers(player.ProjectAll(records))
		}
	})
	wg.Go(func() {
		for records := range p.feeds.ObserveFixtures(ctx) {
			items := fixture.ProjectAll(records, p.location)
			if dropped := len(records) - len(items); dropped > 0 {
				p.logger.Debug("fixtures dropped from projection", "dropped", dropped, "kept", len(items))
			}
			p.publisher.PublishFixtures(items)
		}
	})

	wg.Wait()
	p.logger.Debug("projector stopped")
}
