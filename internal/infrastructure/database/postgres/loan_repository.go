package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	query := `
	INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		l.CustomerID, l.LoanAmount, l.Tenure, l.InterestRate,
		l.MonthlyRepayment, l.EMIsPaidOnTime, l.StartDate, l.EndDate,
	).Scan(&l.LoanID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.LoanID, "customer_id", l.CustomerID)
	return nil
}

func (r *LoanRepository) SaveWithID(ctx context.Context, l *loan.Loan) error {
	query := `
	INSERT INTO loans (id, customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	_, err := r.db.Exec(ctx, query,
		l.LoanID, l.CustomerID, l.LoanAmount, l.Tenure, l.InterestRate,
		l.MonthlyRepayment, l.EMIsPaidOnTime, l.StartDate, l.EndDate,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert loan %d: %w", apperrors.ErrDatabase, l.LoanID, err)
	}
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `
	SELECT ` + loanColumns + `
	FROM loans
	WHERE id = $1`

	return r.scanOne(ctx, query, loanID)
}

func (r *LoanRepository) FindByCustomerAndID(ctx context.Context, customerID, loanID int64) (*loan.Loan, error) {
	query := `
	SELECT ` + loanColumns + `
	FROM loans
	WHERE customer_id = $1 AND id = $2`

	return r.scanOne(ctx, query, customerID, loanID)
}

func (r *LoanRepository) scanOne(ctx context.Context, query string, args ...any) (*loan.Loan, error) {
	var l loan.Loan
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&l.LoanID, &l.CustomerID, &l.LoanAmount, &l.Tenure, &l.InterestRate,
		&l.MonthlyRepayment, &l.EMIsPaidOnTime, &l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: loan", apperrors.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to query loan", "error", err)
		return nil, fmt.Errorf("%w: failed to query loan: %w", apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) FindDetailByID(ctx context.Context, loanID int64) (*loan.LoanDetail, error) {
	query := `
	SELECT l.id, l.customer_id, c.first_name, c.last_name, c.phone_number, l.loan_amount, l.interest_rate, l.tenure, l.monthly_repayment
	FROM loans l
	JOIN customers c ON c.id = l.customer_id
	WHERE l.id = $1`

	var d loan.LoanDetail
	err := r.db.QueryRow(ctx, query, loanID).Scan(
		&d.LoanID, &d.CustomerID, &d.FirstName, &d.LastName, &d.PhoneNumber,
		&d.LoanAmount, &d.InterestRate, &d.Tenure, &d.MonthlyRepayment,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
		}
		r.logger.ErrorContext(ctx, "Failed to query loan detail", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to query loan detail %d: %w", apperrors.ErrDatabase, loanID, err)
	}

	return &d, nil
}

func (r *LoanRepository) FindAllByCustomer(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	query := `
	SELECT ` + loanColumns + `
	FROM loans
	WHERE customer_id = $1
	ORDER BY start_date`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query loans for customer %d: %w", apperrors.ErrDatabase, customerID, err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		var l loan.Loan
		if err := rows.Scan(
			&l.LoanID, &l.CustomerID, &l.LoanAmount, &l.Tenure, &l.InterestRate,
			&l.MonthlyRepayment, &l.EMIsPaidOnTime, &l.StartDate, &l.EndDate, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loan iteration failed: %w", apperrors.ErrDatabase, err)
	}

	return loans, nil
}

func (r *LoanRepository) SumActiveLoanAmount(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error) {
	query := `
	SELECT COALESCE(SUM(loan_amount), 0)
	FROM loans
	WHERE customer_id = $1 AND end_date > $2`

	return r.sumQuery(ctx, query, customerID, now)
}

func (r *LoanRepository) SumActiveMonthlyRepayment(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error) {
	query := `
	SELECT COALESCE(SUM(monthly_repayment), 0)
	FROM loans
	WHERE customer_id = $1 AND end_date > $2`

	return r.sumQuery(ctx, query, customerID, now)
}

func (r *LoanRepository) sumQuery(ctx context.Context, query string, customerID int64, now time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRow(ctx, query, customerID, now).Scan(&sum)
	if err != nil {
		r.logger.ErrorContext(ctx, "Aggregate query failed", "customer_id", customerID, "error", err)
		return decimal.Zero, fmt.Errorf("%w: aggregate query for customer %d failed: %w", apperrors.ErrDatabase, customerID, err)
	}
	return sum, nil
}

func (r *LoanRepository) UpdateAfterPayment(ctx context.Context, loanID int64, remaining decimal.Decimal, tenure, emisPaidOnTime int) error {
	query := `
	UPDATE loans
	SET loan_amount = $1,
		tenure = $2,
		emis_paid_on_time = $3,
		updated_at = NOW()
	WHERE id = $4`

	cmdTag, err := r.db.Exec(ctx, query, remaining, tenure, emisPaidOnTime, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan after payment", "loan_id", loanID, "error", err)
		return fmt.Errorf("%w: failed to update loan %d after payment: %w", apperrors.ErrDatabase, loanID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
	}

	return nil
}
