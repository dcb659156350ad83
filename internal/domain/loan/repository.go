package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository is the persistence contract for loans. All aggregate queries
// take the evaluation instant explicitly so "active" always means
// end_date > now at the caller's clock, not the database's.
type Repository interface {
	// Save inserts a new loan and fills LoanID plus timestamps on success.
	Save(ctx context.Context, l *Loan) error

	// SaveWithID inserts a loan whose identifier came from an external
	// source (bulk ingestion). Duplicate ids fail loudly per row.
	SaveWithID(ctx context.Context, l *Loan) error

	// FindByID returns apperrors.ErrNotFound when no loan exists.
	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	// FindByCustomerAndID scopes the lookup to one customer's loan; a loan
	// id belonging to another customer is ErrNotFound.
	FindByCustomerAndID(ctx context.Context, customerID, loanID int64) (*Loan, error)

	// FindDetailByID returns the loan joined with the owning customer's
	// identity fields, or ErrNotFound.
	FindDetailByID(ctx context.Context, loanID int64) (*LoanDetail, error)

	// FindAllByCustomer returns the customer's full loan history, oldest
	// first. An empty history is a valid result, not an error.
	FindAllByCustomer(ctx context.Context, customerID int64) ([]*Loan, error)

	// SumActiveLoanAmount returns the total remaining principal over the
	// customer's loans with end_date after now, zero when there are none.
	SumActiveLoanAmount(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error)

	// SumActiveMonthlyRepayment returns the total monthly EMI over the
	// customer's loans with end_date after now, zero when there are none.
	SumActiveMonthlyRepayment(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error)

	// UpdateAfterPayment persists the post-payment principal, tenure and
	// on-time counter. MonthlyRepayment and EndDate are deliberately left
	// untouched.
	UpdateAfterPayment(ctx context.Context, loanID int64, remaining decimal.Decimal, tenure, emisPaidOnTime int) error
}
