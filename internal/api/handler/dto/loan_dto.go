package dto

import (
	"fmt"

	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

// LoanTermsRequest is shared by the eligibility check and loan creation
// endpoints; both take the same requested terms.
type LoanTermsRequest struct {
	CustomerID   int64           `json:"customer_id"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	Tenure       int             `json:"tenure"`
	InterestRate decimal.Decimal `json:"interest_rate"`
}

func (r *LoanTermsRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customer_id is required")
	}
	if r.LoanAmount.Sign() <= 0 {
		return fmt.Errorf("loan_amount must be a positive amount")
	}
	if r.Tenure <= 0 {
		return fmt.Errorf("tenure must be a positive number of months")
	}
	if r.InterestRate.IsNegative() {
		return fmt.Errorf("interest_rate cannot be negative")
	}
	return nil
}

func (r *LoanTermsRequest) ToTerms() loan.LoanTerms {
	return loan.LoanTerms{
		CustomerID:   r.CustomerID,
		LoanAmount:   r.LoanAmount,
		Tenure:       r.Tenure,
		InterestRate: r.InterestRate,
	}
}

type EligibilityResponse struct {
	Approval              bool             `json:"approval"`
	CustomerID            int64            `json:"customer_id,omitempty"`
	InterestRate          *decimal.Decimal `json:"interest_rate,omitempty"`
	CorrectedInterestRate *decimal.Decimal `json:"corrected_interest_rate,omitempty"`
	Tenure                int              `json:"tenure,omitempty"`
	MonthlyInstallment    *decimal.Decimal `json:"monthly_installment,omitempty"`
	Message               string           `json:"message,omitempty"`
}

func NewEligibilityResponse(d *loan.EligibilityDecision) EligibilityResponse {
	if d == nil {
		return EligibilityResponse{}
	}
	if !d.Approval {
		return EligibilityResponse{Approval: false, Message: d.Message}
	}
	rate := d.InterestRate
	corrected := d.CorrectedInterestRate
	installment := d.MonthlyInstallment
	return EligibilityResponse{
		Approval:              true,
		CustomerID:            d.CustomerID,
		InterestRate:          &rate,
		CorrectedInterestRate: &corrected,
		Tenure:                d.Tenure,
		MonthlyInstallment:    &installment,
	}
}

// CreateLoanResponse keeps loan_id and monthly_installment as explicit nulls
// on rejection, matching the decision-record contract.
type CreateLoanResponse struct {
	CustomerID         int64            `json:"customer_id"`
	LoanID             *int64           `json:"loan_id"`
	LoanApproved       bool             `json:"loan_approved"`
	MonthlyInstallment *decimal.Decimal `json:"monthly_installment"`
	Message            string           `json:"message"`
}

func NewCreateLoanResponse(res *loan.CreateLoanResult) CreateLoanResponse {
	if res == nil {
		return CreateLoanResponse{}
	}
	return CreateLoanResponse{
		CustomerID:         res.CustomerID,
		LoanID:             res.LoanID,
		LoanApproved:       res.LoanApproved,
		MonthlyInstallment: res.MonthlyInstallment,
		Message:            res.Message,
	}
}

type LoanCustomerInfo struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type ViewLoanResponse struct {
	LoanID             int64            `json:"loan_id"`
	Customer           LoanCustomerInfo `json:"customer"`
	LoanAmount         decimal.Decimal  `json:"loan_amount"`
	InterestRate       decimal.Decimal  `json:"interest_rate"`
	Tenure             int              `json:"tenure"`
	MonthlyInstallment decimal.Decimal  `json:"monthly_installment"`
}

func NewViewLoanResponse(d *loan.LoanDetail) ViewLoanResponse {
	if d == nil {
		return ViewLoanResponse{}
	}
	return ViewLoanResponse{
		LoanID: d.LoanID,
		Customer: LoanCustomerInfo{
			ID:          d.CustomerID,
			FirstName:   d.FirstName,
			LastName:    d.LastName,
			PhoneNumber: d.PhoneNumber,
		},
		LoanAmount:         d.LoanAmount,
		InterestRate:       d.InterestRate,
		Tenure:             d.Tenure,
		MonthlyInstallment: d.MonthlyRepayment,
	}
}

type MakePaymentRequest struct {
	PaymentAmount decimal.Decimal `json:"payment_amount"`
}

func (r *MakePaymentRequest) Validate() error {
	if r.PaymentAmount.Sign() <= 0 {
		return fmt.Errorf("payment_amount must be a positive amount")
	}
	return nil
}

type PaymentResponse struct {
	Message            string          `json:"message"`
	NewRemainingAmount decimal.Decimal `json:"new_remaining_amount"`
	AdjustedTenure     int             `json:"adjusted_tenure"`
	MonthlyRepayment   decimal.Decimal `json:"monthly_repayment"`
}

func NewPaymentResponse(res *loan.PaymentResult) PaymentResponse {
	if res == nil {
		return PaymentResponse{}
	}
	return PaymentResponse{
		Message:            res.Message,
		NewRemainingAmount: res.NewRemainingAmount,
		AdjustedTenure:     res.AdjustedTenure,
		MonthlyRepayment:   res.MonthlyRepayment,
	}
}

type StatementResponse struct {
	CustomerID         int64           `json:"customer_id"`
	Principal          decimal.Decimal `json:"principal"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	LoanID             int64           `json:"loan_id"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	RepaymentsLeft     int             `json:"repayments_left"`
}

func NewStatementResponse(s *loan.Statement) StatementResponse {
	if s == nil {
		return StatementResponse{}
	}
	return StatementResponse{
		CustomerID:         s.CustomerID,
		Principal:          s.Principal,
		MonthlyInstallment: s.MonthlyInstallment,
		LoanID:             s.LoanID,
		InterestRate:       s.InterestRate,
		AmountPaid:         s.AmountPaid,
		RepaymentsLeft:     s.RepaymentsLeft,
	}
}
