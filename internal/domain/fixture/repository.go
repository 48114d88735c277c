package fixture

import "context"

// Predicate filters records in a query. A nil predicate matches every record.
type Predicate func(Record) bool

// Repository describes fixture reads against the local cache.
type Repository interface {
	Fixtures(ctx context.Context, pred Predicate) ([]Record, error)
	ObserveFixtures(ctx context.Context) <-chan []Record
}
