package app

import (
	"github.com/riskibarqy/fpl-datasync/internal/domain/fixture"
	"github.com/riskibarqy/fpl-datasync/internal/domain/player"
	"github.com/riskibarqy/fpl-datasync/internal/domain/team"
	"github.com/riskibarqy/fpl-datasync/internal/interfaces/bridge"
)

// WatchTeams delivers the current teams and every update to cb until the handle is closed.
func (l *DataLayer) WatchTeams(cb bridge.Callbacks[[]team.Team]) *bridge.Handle {
	return bridge.Watch(l.Dispatcher, l.Publisher.SubscribeTeams, cb)
}

func (l *DataLayer) WatchPlayers(cb bridge.Callbacks[[]player.Player]) *bridge.Handle {
	return bridge.Watch(l.Dispatcher, l.Publisher.SubscribePlayers, cb)
}

// WatchPlayersByPoints is WatchPlayers with every delivery sorted by points, highest first.
func (l *DataLayer) WatchPlayersByPoints(cb bridge.Callbacks[[]player.Player]) *bridge.Handle {
	return bridge.Watch(l.Dispatcher, l.Publisher.SubscribePlayersByPoints, cb)
}

func (l *DataLayer) WatchFixtures(cb bridge.Callbacks[[]fixture.GameFixture]) *bridge.Handle {
	return bridge.Watch(l.Dispatcher, l.Publisher.SubscribeFixtures, cb)
}

// FetchTeamsOnce delivers the current teams to fn and detaches.
func (l *DataLayer) FetchTeamsOnce(fn func([]team.Team)) *bridge.Handle {
	return bridge.Once(l.Dispatcher, l.Publisher.SubscribeTeams, fn)
}

func (l *DataLayer) FetchPlayersOnce(fn func([]player.Player)) *bridge.Handle {
	return bridge.Once(l.Dispatcher, l.Publisher.SubscribePlayers, fn)
}

func (l *DataLayer) FetchFixturesOnce(fn func([]fixture.GameFixture)) *bridge.Handle {
	return bridge.Once(l.Dispatcher, l.Publisher.SubscribeFixtures, fn)
}
