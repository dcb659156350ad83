package loan

import (
	"context"
	"fmt"
	"log/slog"

	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/finmath"

	"github.com/shopspring/decimal"
)

const (
	baseScore = 100

	penaltyPerLoan        = 2
	bonusPerPunctualLoan  = 5
	penaltyPerRecentLoan  = 5
	scoreFloorForApproval = 10

	minRateMidBand = 12
	minRateLowBand = 16
)

var two = decimal.NewFromInt(2)

// CalculateCreditScore scores the customer's repayment reliability on a 0-100
// scale from their stored loan history:
//
//	score = 100
//	      - 2 per loan ever taken
//	      + 5 per loan fully repaid with every EMI on time
//	      - 5 per loan started in the current calendar year
//
// If the remaining principal over currently-active loans exceeds the
// customer's approved limit the score is forced to 0 outright, after the
// additive terms. The result is clamped to [0, 100].
func (s *loanService) CalculateCreditScore(ctx context.Context, customerID int64) (int, error) {
	cust, err := s.customerService.GetCustomer(ctx, customerID)
	if err != nil {
		return 0, err
	}

	loans, err := s.repo.FindAllByCustomer(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load loan history for scoring", slog.Any("error", err))
		return 0, err
	}

	now := s.now()
	punctual, startedThisYear := 0, 0
	for _, l := range loans {
		if l.FullyRepaidOnTime() {
			punctual++
		}
		if l.StartDate.Year() == now.Year() {
			startedThisYear++
		}
	}

	score := baseScore
	score -= penaltyPerLoan * len(loans)
	score += bonusPerPunctualLoan * punctual
	score -= penaltyPerRecentLoan * startedThisYear

	activeDebt, err := s.repo.SumActiveLoanAmount(ctx, customerID, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sum active loan amounts", slog.Any("error", err))
		return 0, err
	}

	// Exposure beyond the approved limit overrides everything else.
	if activeDebt.GreaterThan(cust.ApprovedLimit) {
		score = 0
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	s.logger.DebugContext(ctx, "Credit score computed",
		slog.Int64("customerID", customerID),
		slog.Int("score", score),
		slog.Int("totalLoans", len(loans)),
		slog.Int("punctualLoans", punctual),
		slog.Int("startedThisYear", startedThisYear),
		slog.String("activeDebt", activeDebt.String()))

	return score, nil
}

// CheckEligibility maps the credit score to an interest-rate band, corrects
// the requested rate upward to the band minimum when needed, applies the
// EMI-burden affordability check, and computes the monthly installment for
// the corrected terms.
func (s *loanService) CheckEligibility(ctx context.Context, terms LoanTerms) (*EligibilityDecision, error) {
	score, err := s.CalculateCreditScore(ctx, terms.CustomerID)
	if err != nil {
		return nil, err
	}

	var minRate *decimal.Decimal
	switch {
	case score > 50:
		// No minimum; any requested rate is acceptable.
	case score > 30:
		r := decimal.NewFromInt(minRateMidBand)
		minRate = &r
	case score > scoreFloorForApproval:
		r := decimal.NewFromInt(minRateLowBand)
		minRate = &r
	default:
		s.logger.InfoContext(ctx, "Eligibility rejected on credit score",
			slog.Int64("customerID", terms.CustomerID), slog.Int("score", score))
		monitoring.RecordEligibilityCheck("rejected_low_score")
		return &EligibilityDecision{Approval: false, Message: msgLowCreditScore}, nil
	}

	correctedRate := terms.InterestRate
	if minRate != nil && terms.InterestRate.LessThan(*minRate) {
		correctedRate = *minRate
	}

	cust, err := s.customerService.GetCustomer(ctx, terms.CustomerID)
	if err != nil {
		return nil, err
	}

	// The burden check covers existing active loans only; the prospective
	// loan's installment is not part of the sum.
	currentEMIs, err := s.repo.SumActiveMonthlyRepayment(ctx, terms.CustomerID, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sum active monthly repayments", slog.Any("error", err))
		return nil, err
	}

	if currentEMIs.GreaterThan(cust.MonthlySalary.Div(two)) {
		s.logger.InfoContext(ctx, "Eligibility rejected on EMI burden",
			slog.Int64("customerID", terms.CustomerID),
			slog.String("currentEMIs", currentEMIs.String()),
			slog.String("monthlySalary", cust.MonthlySalary.String()))
		monitoring.RecordEligibilityCheck("rejected_emi_burden")
		return &EligibilityDecision{Approval: false, Message: msgHighEMIBurden}, nil
	}

	installment, err := finmath.MonthlyInstallment(terms.LoanAmount, &correctedRate, terms.Tenure)
	if err != nil {
		return nil, fmt.Errorf("failed to compute installment: %w", err)
	}

	monitoring.RecordEligibilityCheck("approved")
	return &EligibilityDecision{
		Approval:              true,
		CustomerID:            terms.CustomerID,
		InterestRate:          terms.InterestRate,
		CorrectedInterestRate: correctedRate,
		Tenure:                terms.Tenure,
		MonthlyInstallment:    installment,
	}, nil
}
