package dto

import (
	"fmt"
	"strings"
	"unicode"

	"credit-engine/internal/domain/customer"

	"github.com/shopspring/decimal"
)

type RegisterCustomerRequest struct {
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	PhoneNumber   string          `json:"phone_number"`
	Age           int             `json:"age"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
}

func (r *RegisterCustomerRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" {
		return fmt.Errorf("first_name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		return fmt.Errorf("last_name is required")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return fmt.Errorf("phone_number is required")
	}
	for _, c := range strings.TrimSpace(r.PhoneNumber) {
		if !unicode.IsDigit(c) {
			return fmt.Errorf("phone_number must contain only digits")
		}
	}
	if r.Age <= 0 {
		return fmt.Errorf("age must be a positive integer")
	}
	if r.MonthlyIncome.IsNegative() {
		return fmt.Errorf("monthly_income cannot be negative")
	}
	return nil
}

type RegisterCustomerResponse struct {
	CustomerID    int64           `json:"customer_id"`
	Name          string          `json:"name"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	PhoneNumber   string          `json:"phone_number"`
	Age           int             `json:"age"`
	ApprovedLimit decimal.Decimal `json:"approved_limit"`
}

func NewRegisterCustomerResponse(cust *customer.Customer) RegisterCustomerResponse {
	if cust == nil {
		return RegisterCustomerResponse{}
	}
	return RegisterCustomerResponse{
		CustomerID:    cust.CustomerID,
		Name:          cust.FullName(),
		MonthlyIncome: cust.MonthlySalary,
		PhoneNumber:   cust.PhoneNumber,
		Age:           cust.Age,
		ApprovedLimit: cust.ApprovedLimit,
	}
}

type TokenRequest struct {
	Username string `json:"username"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
