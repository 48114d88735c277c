package player

import "context"

// Predicate filters records in a query. A nil predicate matches every record.
type Predicate func(Record) bool

// Repository describes player reads against the local cache.
type Repository interface {
	Players(ctx context.Context, pred Predicate) ([]Record, error)
	ObservePlayers(ctx context.Context) <-chan []Record
}
