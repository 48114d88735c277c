package usecase

import (
	"context"

	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
	"github.com/riskibarqy/fpl-datasync/internal/platform/broadcast"
)

// Publisher holds the latest projected collections and broadcasts every update.
// Slots start empty; delivered slices are shared and must not be modified.
type Publisher struct {
	teams    *broadcast.Value[[]team.Team]
	players  *broadcast.Value[[]player.Player]
	fixtures *broadcast.Value[[]fixture.GameFixture]
}

func NewPublisher() *Publisher {
	return &Publisher{
		teams:    broadcast.NewValue([]team.Team{}),
		players:  broadcast.NewValue([]player.Player{}),
		fixtures: broadcast.NewValue([]fixture.GameFixture{}),
	}
}

func (p *Publisher) PublishTeams(items []team.Team)              { p.teams.Publish(items) }
func (p *Publisher) PublishPlayers(items []player.Player)        { p.players.Publish(items) }
func (p *Publisher) PublishFixtures(items []fixture.GameFixture) { p.fixtures.Publish(items) }

func (p *Publisher) Teams() []team.Team              { return p.teams.Load() }
func (p *Publisher) Players() []player.Player        { return p.players.Load() }
func (p *Publisher) Fixtures() []fixture.GameFixture { return p.fixtures.Load() }

func (p *Publisher) SubscribeTeams(ctx context.Context) <-chan []team.Team {
	return p.teams.Subscribe(ctx)
}

func (p *Publisher) SubscribePlayers(ctx context.Context) <-chan []player.Player {
	return p.players.Subscribe(ctx)
}

func (p *Publisher) SubscribeFixtures(ctx context.Context) <-chan []fixture.GameFixture {
	return p.fixtures.Subscribe(ctx)
}

// PlayersByPoints returns the current players sorted by points, highest first.
func (p *Publisher) PlayersByPoints() []player.Player {
	return player.SortedByPoints(p.players.Load())
}

// SubscribePlayersByPoints streams players sorted by points. Sorting happens per delivered value.
func (p *Publisher) SubscribePlayersByPoints(ctx context.Context) <-chan []player.Player {
	return broadcast.Map(ctx, p.players.Subscribe(ctx), player.SortedByPoints)
}

// FetchTeamsOnce calls fn with the current teams.
func (p *Publisher) FetchTeamsOnce(fn func([]team.Team)) {
	p.teams.Once(fn)
}

// FetchPlayersOnce calls fn with the current players.
func (p *Publisher) FetchPlayersOnce(fn func([]player.Player)) {
	p.players.Once(fn)
}

// FetchFixturesOnce calls fn with the current fixtures.
func (p *Publisher) FetchFixturesOnce(fn func([]fixture.GameFixture)) {
	p.fixtures.Once(fn)
}

// Close completes every subscription.
func (p *Publisher) Close() {
	p.teams.Close(nil)
	p.players.Close(nil)
	p.fixtures.Close(nil)
}
