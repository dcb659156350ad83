// Package finmath holds the pure financial formulas used by the loan
// lifecycle: annuity installments, amortization-by-simulation tenure
// recomputation and currency truncation. All functions are side-effect free.
package finmath

import (
	"fmt"
	"math"

	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// maxTenureMonths bounds the amortization simulation in NewTenure. A fixed
// repayment that never exceeds the monthly interest accrual would otherwise
// loop forever.
const maxTenureMonths = 10000

var noRateSentinel = decimal.NewFromInt(-1)

// MonthlyInstallment computes the fixed monthly payment for an amortizing
// loan using the standard annuity formula P*r / (1 - (1+r)^-n), rounded to
// the nearest whole currency unit.
//
// A nil annualRate, or the -1 sentinel carried by legacy loan rows, means
// "no rate" and yields a zero installment. A tenure of zero makes the
// annuity denominator 1-(1+r)^0 collapse to zero, so non-positive tenures
// are rejected with ErrComputation instead of producing NaN.
func MonthlyInstallment(principal decimal.Decimal, annualRate *decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if annualRate == nil || annualRate.Equal(noRateSentinel) {
		return decimal.Zero, nil
	}
	if tenureMonths <= 0 {
		return decimal.Zero, fmt.Errorf("%w: tenure must be positive, got %d months", apperrors.ErrComputation, tenureMonths)
	}

	monthlyRate := annualRate.InexactFloat64() / 1200
	installment := principal.InexactFloat64() * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(tenureMonths)))
	if math.IsNaN(installment) || math.IsInf(installment, 0) {
		return decimal.Zero, fmt.Errorf("%w: annuity formula is undefined for rate %s over %d months",
			apperrors.ErrComputation, annualRate.String(), tenureMonths)
	}

	return decimal.NewFromFloat(installment).Round(0), nil
}

// NewTenure recomputes the number of months needed to pay off the remaining
// principal at the loan's fixed monthly repayment, by simulating the balance
// month by month: balance += balance*(rate/1200) - repayment. This mirrors
// the statement math used elsewhere; it is intentionally a simulation, not a
// closed-form solve.
//
// When the repayment does not outpace the monthly interest accrual the
// balance never reaches zero; the iteration cap converts that divergence
// into ErrComputation.
func NewTenure(remaining, annualRate, monthlyRepayment decimal.Decimal) (int, error) {
	if remaining.Sign() <= 0 {
		return 0, nil
	}

	monthlyRate := annualRate.Div(decimal.NewFromInt(1200))
	balance := remaining

	for months := 1; months <= maxTenureMonths; months++ {
		balance = balance.Add(balance.Mul(monthlyRate)).Sub(monthlyRepayment)
		if balance.Sign() <= 0 {
			return months, nil
		}
	}

	return 0, fmt.Errorf("%w: tenure unbounded, repayment %s does not amortize balance %s at rate %s%%",
		apperrors.ErrComputation, monthlyRepayment.String(), remaining.String(), annualRate.String())
}

// TruncateTwoDecimals drops everything past the hundredths place without
// rounding, truncating toward zero.
func TruncateTwoDecimals(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}
