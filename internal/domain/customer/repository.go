package customer

import (
	"context"

	"github.com/shopspring/decimal"
)

// CustomerRepository is the persistence contract consumed by the customer
// service, the loan engine and the ingestion job. Implementations live in
// internal/infrastructure/database/postgres.
type CustomerRepository interface {
	// Save inserts a new customer and fills CustomerID plus the timestamp
	// fields on success.
	Save(ctx context.Context, cust *Customer) error

	// SaveWithID inserts a customer whose identifier was assigned by an
	// external source (bulk ingestion rows carry their own ids). Duplicate
	// ids fail with a database error; the ingestion job logs and skips them.
	SaveWithID(ctx context.Context, cust *Customer) error

	// FindByID returns apperrors.ErrNotFound when no customer exists.
	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// UpdateCurrentDebt overwrites the customer's aggregated outstanding
	// debt. Only the ingestion/aggregation paths call this.
	UpdateCurrentDebt(ctx context.Context, customerID int64, debt decimal.Decimal) error

	// ListIDs returns the ids of every stored customer, for aggregation
	// sweeps over the full book.
	ListIDs(ctx context.Context) ([]int64, error)
}
