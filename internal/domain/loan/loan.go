package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan is a single credit facility owned by exactly one customer.
//
// LoanAmount holds the remaining principal and shrinks as payments are
// applied. Tenure is recomputed after each payment, but EndDate keeps the
// value fixed at creation: reporting relies on the original horizon, so the
// two intentionally drift apart once prepayments happen.
type Loan struct {
	LoanID           int64
	CustomerID       int64
	LoanAmount       decimal.Decimal
	Tenure           int
	InterestRate     decimal.Decimal
	MonthlyRepayment decimal.Decimal
	EMIsPaidOnTime   int
	StartDate        time.Time
	EndDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ActiveAt reports whether the loan still counts toward debt and EMI
// aggregates at the given instant. Activeness is derived from EndDate, never
// stored.
func (l *Loan) ActiveAt(t time.Time) bool {
	return l.EndDate.After(t)
}

// FullyRepaidOnTime reports whether every scheduled installment was paid
// punctually; such loans earn a credit-score bonus.
func (l *Loan) FullyRepaidOnTime() bool {
	return l.EMIsPaidOnTime == l.Tenure
}

// LoanDetail is the view-loan projection: loan fields joined with the owning
// customer's identity fields.
type LoanDetail struct {
	LoanID           int64
	CustomerID       int64
	FirstName        string
	LastName         string
	PhoneNumber      string
	LoanAmount       decimal.Decimal
	InterestRate     decimal.Decimal
	Tenure           int
	MonthlyRepayment decimal.Decimal
}
