package team

import "context"

// Predicate filters records in a query. A nil predicate matches every record.
type Predicate func(Record) bool

// Repository describes team reads against the local cache.
type Repository interface {
	Teams(ctx context.Context, pred Predicate) ([]Record, error)
	ObserveTeams(ctx context.Context) <-chan []Record
}
