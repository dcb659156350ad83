package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
	"credit-engine/internal/pkg/finmath"

	"github.com/shopspring/decimal"
)

const (
	msgLoanApproved    = "Loan approved"
	msgLowCreditScore  = "Loan not approved due to low credit score"
	msgHighEMIBurden   = "Loan not approved due to high EMI burden"
	msgPaymentAccepted = "Payment processed successfully"
)

// LoanTerms is the requested shape of a prospective loan.
type LoanTerms struct {
	CustomerID   int64
	LoanAmount   decimal.Decimal
	Tenure       int
	InterestRate decimal.Decimal
}

// EligibilityDecision is the outcome of the eligibility pipeline. A rejection
// is a valid decision, not an error: Approval is false and Message carries
// the reason.
type EligibilityDecision struct {
	Approval              bool
	CustomerID            int64
	InterestRate          decimal.Decimal
	CorrectedInterestRate decimal.Decimal
	Tenure                int
	MonthlyInstallment    decimal.Decimal
	Message               string
}

// CreateLoanResult mirrors the decision record returned by loan creation.
// LoanID and MonthlyInstallment are nil when the loan was not approved.
type CreateLoanResult struct {
	CustomerID         int64
	LoanID             *int64
	LoanApproved       bool
	MonthlyInstallment *decimal.Decimal
	Message            string
}

type PaymentResult struct {
	Message            string
	NewRemainingAmount decimal.Decimal
	AdjustedTenure     int
	MonthlyRepayment   decimal.Decimal
}

// Statement summarizes a loan's repayment progress. AmountPaid is truncated,
// not rounded, to two decimals.
type Statement struct {
	CustomerID         int64
	LoanID             int64
	Principal          decimal.Decimal
	InterestRate       decimal.Decimal
	MonthlyInstallment decimal.Decimal
	AmountPaid         decimal.Decimal
	RepaymentsLeft     int
}

type LoanService interface {
	// CalculateCreditScore produces the customer's heuristic credit score
	// in [0, 100] from their stored loan history.
	CalculateCreditScore(ctx context.Context, customerID int64) (int, error)

	// CheckEligibility runs the scoring and affordability pipeline against
	// the requested terms and returns the decision record.
	CheckEligibility(ctx context.Context, terms LoanTerms) (*EligibilityDecision, error)

	// CreateLoan persists a new loan when the terms are eligible, using the
	// corrected interest rate and computed installment.
	CreateLoan(ctx context.Context, terms LoanTerms) (*CreateLoanResult, error)

	// MakePayment applies a positive payment amount to the customer's loan,
	// recomputing the tenure against the unchanged monthly repayment.
	MakePayment(ctx context.Context, customerID, loanID int64, amount decimal.Decimal) (*PaymentResult, error)

	// GetStatement returns the repayment statement for the customer's loan.
	GetStatement(ctx context.Context, customerID, loanID int64) (*Statement, error)

	// ViewLoan returns the loan joined with the owning customer's identity.
	ViewLoan(ctx context.Context, loanID int64) (*LoanDetail, error)
}

var _ LoanService = (*loanService)(nil)

type loanService struct {
	repo            Repository
	customerService customer.CustomerService
	logger          *slog.Logger
	now             func() time.Time
}

func NewLoanService(repo Repository, cs customer.CustomerService, logger *slog.Logger) LoanService {
	if repo == nil || cs == nil {
		panic("loan service dependencies cannot be nil")
	}
	return &loanService{
		repo:            repo,
		customerService: cs,
		logger:          logger.With(slog.String("component", "loanService")),
		now:             time.Now,
	}
}

func (s *loanService) CreateLoan(ctx context.Context, terms LoanTerms) (*CreateLoanResult, error) {
	s.logger.InfoContext(ctx, "Creating new loan", slog.Int64("customerID", terms.CustomerID))

	decision, err := s.CheckEligibility(ctx, terms)
	if err != nil {
		return nil, err
	}

	if !decision.Approval {
		s.logger.InfoContext(ctx, "Loan not approved", slog.String("reason", decision.Message))
		monitoring.RecordLoanDecision("rejected")
		return &CreateLoanResult{
			CustomerID:   terms.CustomerID,
			LoanApproved: false,
			Message:      decision.Message,
		}, nil
	}

	now := s.now()
	newLoan := &Loan{
		CustomerID:       terms.CustomerID,
		LoanAmount:       terms.LoanAmount,
		Tenure:           terms.Tenure,
		InterestRate:     decision.CorrectedInterestRate,
		MonthlyRepayment: decision.MonthlyInstallment,
		EMIsPaidOnTime:   0,
		StartDate:        now,
		// The end date advances the start date by whole years only
		// (tenure/12 truncates); it is fixed here and never recomputed,
		// even when payments later shorten the tenure.
		EndDate: now.AddDate(terms.Tenure/12, 0, 0),
	}

	if err := s.repo.Save(ctx, newLoan); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save approved loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	monitoring.RecordLoanDecision("approved")
	s.logger.InfoContext(ctx, "Loan created successfully",
		slog.Int64("loanID", newLoan.LoanID),
		slog.String("installment", decision.MonthlyInstallment.String()))

	installment := decision.MonthlyInstallment
	return &CreateLoanResult{
		CustomerID:         terms.CustomerID,
		LoanID:             &newLoan.LoanID,
		LoanApproved:       true,
		MonthlyInstallment: &installment,
		Message:            msgLoanApproved,
	}, nil
}

func (s *loanService) MakePayment(ctx context.Context, customerID, loanID int64, amount decimal.Decimal) (*PaymentResult, error) {
	s.logger.InfoContext(ctx, "Applying payment",
		slog.Int64("customerID", customerID), slog.Int64("loanID", loanID), slog.String("amount", amount.String()))

	if amount.Sign() <= 0 {
		return nil, apperrors.NewValidationError("payment_amount", "must be a positive amount")
	}

	l, err := s.repo.FindByCustomerAndID(ctx, customerID, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			monitoring.RecordPayment("failure_not_found")
			return nil, fmt.Errorf("%w: loan %d for customer %d not found", apperrors.ErrNotFound, loanID, customerID)
		}
		s.logger.ErrorContext(ctx, "Failed to load loan for payment", slog.Any("error", err))
		return nil, err
	}

	remaining := l.LoanAmount.Sub(amount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	adjustedTenure, err := finmath.NewTenure(remaining, l.InterestRate, l.MonthlyRepayment)
	if err != nil {
		s.logger.ErrorContext(ctx, "Tenure recomputation failed", slog.Any("error", err))
		monitoring.RecordPayment("failure_computation")
		return nil, err
	}

	if err := s.repo.UpdateAfterPayment(ctx, l.LoanID, remaining, adjustedTenure, l.EMIsPaidOnTime+1); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist payment", slog.Any("error", err))
		monitoring.RecordPayment("failure_database")
		return nil, err
	}

	monitoring.RecordPayment("success")
	s.logger.InfoContext(ctx, "Payment processed",
		slog.Int64("loanID", l.LoanID),
		slog.String("remaining", remaining.String()),
		slog.Int("adjustedTenure", adjustedTenure))

	return &PaymentResult{
		Message:            msgPaymentAccepted,
		NewRemainingAmount: remaining,
		AdjustedTenure:     adjustedTenure,
		MonthlyRepayment:   l.MonthlyRepayment,
	}, nil
}

func (s *loanService) GetStatement(ctx context.Context, customerID, loanID int64) (*Statement, error) {
	s.logger.InfoContext(ctx, "Building loan statement",
		slog.Int64("customerID", customerID), slog.Int64("loanID", loanID))

	l, err := s.repo.FindByCustomerAndID(ctx, customerID, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %d for customer %d not found", apperrors.ErrNotFound, loanID, customerID)
		}
		return nil, err
	}

	amountPaid := finmath.TruncateTwoDecimals(l.MonthlyRepayment.Mul(decimal.NewFromInt(int64(l.EMIsPaidOnTime))))

	return &Statement{
		CustomerID:         l.CustomerID,
		LoanID:             l.LoanID,
		Principal:          l.LoanAmount,
		InterestRate:       l.InterestRate,
		MonthlyInstallment: l.MonthlyRepayment,
		AmountPaid:         amountPaid,
		RepaymentsLeft:     l.Tenure - l.EMIsPaidOnTime,
	}, nil
}

func (s *loanService) ViewLoan(ctx context.Context, loanID int64) (*LoanDetail, error) {
	s.logger.InfoContext(ctx, "Fetching loan details", slog.Int64("loanID", loanID))

	detail, err := s.repo.FindDetailByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to fetch loan details", slog.Any("error", err))
		return nil, err
	}

	return detail, nil
}
