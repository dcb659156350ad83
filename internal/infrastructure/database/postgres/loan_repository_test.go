package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLoanRepo(t *testing.T) (context.Context, *LoanRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewLoanRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func testLoan() *loan.Loan {
	start := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	return &loan.Loan{
		CustomerID:       1,
		LoanAmount:       decimal.NewFromInt(10000),
		Tenure:           12,
		InterestRate:     decimal.NewFromInt(5),
		MonthlyRepayment: decimal.NewFromInt(856),
		EMIsPaidOnTime:   0,
		StartDate:        start,
		EndDate:          start.AddDate(1, 0, 0),
	}
}

func loanRows(l *loan.Loan) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "customer_id", "loan_amount", "tenure", "interest_rate",
		"monthly_repayment", "emis_paid_on_time", "start_date", "end_date", "created_at", "updated_at",
	}).AddRow(
		l.LoanID, l.CustomerID, l.LoanAmount, l.Tenure, l.InterestRate,
		l.MonthlyRepayment, l.EMIsPaidOnTime, l.StartDate, l.EndDate, l.CreatedAt, l.UpdatedAt,
	)
}

func TestSaveLoan(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoan()

	query := `
	INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_repayment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	RETURNING id, created_at, updated_at`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(
		l.CustomerID, l.LoanAmount, l.Tenure, l.InterestRate,
		l.MonthlyRepayment, l.EMIsPaidOnTime, l.StartDate, l.EndDate,
	).WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
		AddRow(int64(42), l.CreatedAt, l.UpdatedAt))

	err := repo.Save(ctx, l)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), l.LoanID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoanByCustomerAndID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	l := testLoan()
	l.LoanID = 42

	query := `
	SELECT ` + loanColumns + `
	FROM loans
	WHERE customer_id = $1 AND id = $2`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(l.CustomerID, l.LoanID).
		WillReturnRows(loanRows(l))

	found, err := repo.FindByCustomerAndID(ctx, l.CustomerID, l.LoanID)
	require.NoError(t, err)
	assert.Equal(t, l.LoanID, found.LoanID)
	assert.True(t, found.LoanAmount.Equal(l.LoanAmount))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoanByCustomerAndIDWrongCustomer(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `
	SELECT ` + loanColumns + `
	FROM loans
	WHERE customer_id = $1 AND id = $2`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(2), int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByCustomerAndID(ctx, 2, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindLoanDetailByID(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `
	SELECT l.id, l.customer_id, c.first_name, c.last_name, c.phone_number, l.loan_amount, l.interest_rate, l.tenure, l.monthly_repayment
	FROM loans l
	JOIN customers c ON c.id = l.customer_id
	WHERE l.id = $1`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "customer_id", "first_name", "last_name", "phone_number",
			"loan_amount", "interest_rate", "tenure", "monthly_repayment",
		}).AddRow(
			int64(42), int64(1), "Aarav", "Sharma", "9876543210",
			decimal.NewFromInt(10000), decimal.NewFromInt(5), 12, decimal.NewFromInt(856),
		))

	detail, err := repo.FindDetailByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Aarav", detail.FirstName)
	assert.Equal(t, int64(1), detail.CustomerID)
	assert.True(t, detail.MonthlyRepayment.Equal(decimal.NewFromInt(856)))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindAllLoansByCustomer(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	first := testLoan()
	first.LoanID = 1
	second := testLoan()
	second.LoanID = 2
	second.StartDate = first.StartDate.AddDate(0, 3, 0)

	query := `
	SELECT ` + loanColumns + `
	FROM loans
	WHERE customer_id = $1
	ORDER BY start_date`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "customer_id", "loan_amount", "tenure", "interest_rate",
			"monthly_repayment", "emis_paid_on_time", "start_date", "end_date", "created_at", "updated_at",
		}).AddRow(
			first.LoanID, first.CustomerID, first.LoanAmount, first.Tenure, first.InterestRate,
			first.MonthlyRepayment, first.EMIsPaidOnTime, first.StartDate, first.EndDate, first.CreatedAt, first.UpdatedAt,
		).AddRow(
			second.LoanID, second.CustomerID, second.LoanAmount, second.Tenure, second.InterestRate,
			second.MonthlyRepayment, second.EMIsPaidOnTime, second.StartDate, second.EndDate, second.CreatedAt, second.UpdatedAt,
		))

	loans, err := repo.FindAllByCustomer(ctx, 1)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, int64(1), loans[0].LoanID)
	assert.Equal(t, int64(2), loans[1].LoanID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindAllLoansByCustomerEmptyHistory(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	query := `
	SELECT ` + loanColumns + `
	FROM loans
	WHERE customer_id = $1
	ORDER BY start_date`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "customer_id", "loan_amount", "tenure", "interest_rate",
			"monthly_repayment", "emis_paid_on_time", "start_date", "end_date", "created_at", "updated_at",
		}))

	loans, err := repo.FindAllByCustomer(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, loans)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSumActiveLoanAmount(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	query := `
	SELECT COALESCE(SUM(loan_amount), 0)
	FROM loans
	WHERE customer_id = $1 AND end_date > $2`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1), now).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.NewFromInt(250000)))

	sum, err := repo.SumActiveLoanAmount(ctx, 1, now)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(250000)))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSumActiveMonthlyRepaymentNoActiveLoans(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	query := `
	SELECT COALESCE(SUM(monthly_repayment), 0)
	FROM loans
	WHERE customer_id = $1 AND end_date > $2`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1), now).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(decimal.Zero))

	sum, err := repo.SumActiveMonthlyRepayment(ctx, 1, now)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateAfterPayment(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	remaining := decimal.NewFromInt(900)

	query := `
	UPDATE loans
	SET loan_amount = $1,
		tenure = $2,
		emis_paid_on_time = $3,
		updated_at = NOW()
	WHERE id = $4`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(remaining, 10, 4, int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateAfterPayment(ctx, 42, remaining, 10, 4)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateAfterPaymentMissingLoan(t *testing.T) {
	ctx, repo, mockPool := setupLoanRepo(t)
	defer mockPool.Close()

	remaining := decimal.NewFromInt(900)

	query := `
	UPDATE loans
	SET loan_amount = $1,
		tenure = $2,
		emis_paid_on_time = $3,
		updated_at = NOW()
	WHERE id = $4`

	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(remaining, 10, 4, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateAfterPayment(ctx, 99, remaining, 10, 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
