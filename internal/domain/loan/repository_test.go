package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, l *Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockRepository) SaveWithID(ctx context.Context, l *Loan) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	var l *Loan
	if args.Get(0) != nil {
		l = args.Get(0).(*Loan)
	}
	return l, args.Error(1)
}

func (m *MockRepository) FindByCustomerAndID(ctx context.Context, customerID, loanID int64) (*Loan, error) {
	args := m.Called(ctx, customerID, loanID)
	var l *Loan
	if args.Get(0) != nil {
		l = args.Get(0).(*Loan)
	}
	return l, args.Error(1)
}

func (m *MockRepository) FindDetailByID(ctx context.Context, loanID int64) (*LoanDetail, error) {
	args := m.Called(ctx, loanID)
	var d *LoanDetail
	if args.Get(0) != nil {
		d = args.Get(0).(*LoanDetail)
	}
	return d, args.Error(1)
}

func (m *MockRepository) FindAllByCustomer(ctx context.Context, customerID int64) ([]*Loan, error) {
	args := m.Called(ctx, customerID)
	var loans []*Loan
	if args.Get(0) != nil {
		loans = args.Get(0).([]*Loan)
	}
	return loans, args.Error(1)
}

func (m *MockRepository) SumActiveLoanAmount(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) SumActiveMonthlyRepayment(ctx context.Context, customerID int64, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockRepository) UpdateAfterPayment(ctx context.Context, loanID int64, remaining decimal.Decimal, tenure, emisPaidOnTime int) error {
	args := m.Called(ctx, loanID, remaining, tenure, emisPaidOnTime)
	return args.Error(0)
}
