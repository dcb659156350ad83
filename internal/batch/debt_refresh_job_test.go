package batch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithID(ctx context.Context, cust *customer.Customer) error {
	args := m.Called(ctx, cust)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	var cust *customer.Customer
	if args.Get(0) != nil {
		cust = args.Get(0).(*customer.Customer)
	}
	return cust, args.Error(1)
}

func (m *MockCustomerRepository) UpdateCurrentDebt(ctx context.Context, customerID int64, debt decimal.Decimal) error {
	args := m.Called(ctx, customerID, debt)
	return args.Error(0)
}

func (m *MockCustomerRepository) ListIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	var ids []int64
	if args.Get(0) != nil {
		ids = args.Get(0).([]int64)
	}
	return ids, args.Error(1)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLoanRepository) SaveWithID(ctx context.Context, l *loan.Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLoanRepository) FindByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	var l *loan.Loan
	if args.Get(0) != nil {
		l = args.Get(0).(*loan.Loan)
	}
	return l, args.Error(1)
}

func (m *MockLoanRepository) FindByCustomerAndID(ctx context.Context, customerID, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, customerID, loanID)
	var l *loan.Loan
	if args.Get(0) != nil {
		l = args.Get(0).(*loan.Loan)
	}
	return l, args.Error(1)
}

func (m *MockLoanRepository) FindDetailByID(ctx context.Context, loanID int64) (*loan.LoanDetail, error) {
	args := m.Called(ctx, loanID)
	var d *loan.LoanDetail
	if args.Get(0) != nil {
		d = args.Get(0).(*loan.LoanDetail)
	}
	return d, args.Error(1)
}

func (m *MockLoanRepository) FindAllByCustomer(ctx context.Context, customerID int64) ([]*loan.Loan, error) {
	args := m.Called(ctx, customerID)
	var loans []*loan.Loan
	if args.Get(0) != nil {
		loans = args.Get(0).([]*loan.Loan)
	}
	return loans, args.Error(1)
}

func (m *MockLoanRepository) SumActiveLoanAmount(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLoanRepository) SumActiveMonthlyRepayment(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLoanRepository) UpdateAfterPayment(ctx context.Context, loanID int64, remaining decimal.Decimal, tenure, emisPaidOnTime int) error {
	args := m.Called(ctx, loanID, remaining, tenure, emisPaidOnTime)
	return args.Error(0)
}

func TestDebtRefreshJobRun(t *testing.T) {
	customerRepo := new(MockCustomerRepository)
	loanRepo := new(MockLoanRepository)
	job := NewDebtRefreshJob(customerRepo, loanRepo, logger)

	ctx := context.Background()
	customerRepo.On("ListIDs", ctx).Return([]int64{1, 2}, nil)
	loanRepo.On("SumActiveLoanAmount", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(decimal.NewFromInt(250000), nil)
	loanRepo.On("SumActiveLoanAmount", ctx, int64(2), mock.AnythingOfType("time.Time")).Return(decimal.Zero, nil)
	customerRepo.On("UpdateCurrentDebt", ctx, int64(1), decimal.NewFromInt(250000)).Return(nil)
	customerRepo.On("UpdateCurrentDebt", ctx, int64(2), decimal.Zero).Return(nil)

	err := job.Run(ctx)

	require.NoError(t, err)
	customerRepo.AssertExpectations(t)
	loanRepo.AssertExpectations(t)
}

func TestDebtRefreshJobContinuesAfterPerCustomerFailure(t *testing.T) {
	customerRepo := new(MockCustomerRepository)
	loanRepo := new(MockLoanRepository)
	job := NewDebtRefreshJob(customerRepo, loanRepo, logger)

	ctx := context.Background()
	customerRepo.On("ListIDs", ctx).Return([]int64{1, 2}, nil)
	loanRepo.On("SumActiveLoanAmount", ctx, int64(1), mock.AnythingOfType("time.Time")).Return(decimal.Zero, errors.New("query timeout"))
	loanRepo.On("SumActiveLoanAmount", ctx, int64(2), mock.AnythingOfType("time.Time")).Return(decimal.NewFromInt(1000), nil)
	customerRepo.On("UpdateCurrentDebt", ctx, int64(2), decimal.NewFromInt(1000)).Return(nil)

	err := job.Run(ctx)

	require.NoError(t, err)
	customerRepo.AssertNotCalled(t, "UpdateCurrentDebt", ctx, int64(1), mock.Anything)
	customerRepo.AssertExpectations(t)
}

func TestDebtRefreshJobAbortsWhenListFails(t *testing.T) {
	customerRepo := new(MockCustomerRepository)
	loanRepo := new(MockLoanRepository)
	job := NewDebtRefreshJob(customerRepo, loanRepo, logger)

	ctx := context.Background()
	customerRepo.On("ListIDs", ctx).Return(nil, errors.New("connection refused"))

	err := job.Run(ctx)

	assert.Error(t, err)
	loanRepo.AssertNotCalled(t, "SumActiveLoanAmount", mock.Anything, mock.Anything, mock.Anything)
}

func TestDebtRefreshJobStopsOnCancelledContext(t *testing.T) {
	customerRepo := new(MockCustomerRepository)
	loanRepo := new(MockLoanRepository)
	job := NewDebtRefreshJob(customerRepo, loanRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	customerRepo.On("ListIDs", ctx).Return([]int64{1, 2, 3}, nil)
	cancel()

	err := job.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	loanRepo.AssertNotCalled(t, "SumActiveLoanAmount", mock.Anything, mock.Anything, mock.Anything)
}
