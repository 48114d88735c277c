package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fpl-datasync/internal/domain/localstore"
	qb "github.com/riskibarqy/fpl-datasync/internal/platform/querybuilder"
)

// CacheBackend persists store snapshots in three tables, one SQL transaction per commit.
// Row order is kept in the position column. The db handle is owned by the caller.
type CacheBackend struct {
	db *sqlx.DB
}

var _ localstore.Backend = (*CacheBackend)(nil)

func NewCacheBackend(db *sqlx.DB) *CacheBackend {
	return &CacheBackend{db: db}
}

func (b *CacheBackend) Load(ctx context.Context) (localstore.Snapshot, error) {
	var teams []teamTableModel
	if err := selectOrdered(ctx, b.db, tableTeams, teamTableModel{}, &teams); err != nil {
		return localstore.Snapshot{}, err
	}
	var players []playerTableModel
	if err := selectOrdered(ctx, b.db, tablePlayers, playerTableModel{}, &players); err != nil {
		return localstore.Snapshot{}, err
	}
	var fixtures []fixtureTableModel
	if err := selectOrdered(ctx, b.db, tableFixtures, fixtureTableModel{}, &fixtures); err != nil {
		return localstore.Snapshot{}, err
	}

	snapshot, err := restoreSnapshot(teams, players, fixtures)
	if err != nil {
		return localstore.Snapshot{}, errors.Wrap(err, "restore cache tables")
	}
	return snapshot, nil
}

func (b *CacheBackend) Commit(ctx context.Context, snapshot localstore.Snapshot, touched []localstore.Kind) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx commit cache snapshot")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, kind := range touched {
		switch kind {
		case localstore.KindTeam:
			err = replaceTable(ctx, tx, tableTeams, teamRows(snapshot.Teams))
		case localstore.KindPlayer:
			err = replaceTable(ctx, tx, tablePlayers, playerRows(snapshot.Players))
		case localstore.KindFixture:
			err = replaceTable(ctx, tx, tableFixtures, fixtureRows(snapshot.Fixtures))
		default:
			err = errors.Newf("unknown record kind %q", kind)
		}
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit cache snapshot tx")
	}
	return nil
}

func (b *CacheBackend) Close() error {
	return nil
}

func selectOrdered[T any](ctx context.Context, db *sqlx.DB, table string, model T, dest *[]T) error {
	cols, err := qb.Columns(model)
	if err != nil {
		return errors.Wrapf(err, "columns of %s", table)
	}
	query, args, err := qb.Select(cols...).From(table).OrderBy("position").ToSQL()
	if err != nil {
		return errors.Wrapf(err, "build select %s query", table)
	}
	if err := db.SelectContext(ctx, dest, query, args...); err != nil {
		return errors.Wrapf(err, "select %s", table)
	}
	return nil
}

func replaceTable[T any](ctx context.Context, tx *sqlx.Tx, table string, rows []T) error {
	query, _, err := qb.DeleteFrom(table).ToSQL()
	if err != nil {
		return errors.Wrapf(err, "build delete %s query", table)
	}
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(err, "delete %s", table)
	}

	for _, batch := range chunk(rows, insertBatchSize) {
		query, args, err := qb.InsertModels(table, batch, "")
		if err != nil {
			return errors.Wrapf(err, "build insert %s query", table)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "insert %s", table)
		}
	}
	return nil
}
