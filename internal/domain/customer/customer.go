package customer

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// approvedLimitUnit is the granularity of the approved credit limit. The
// limit derived at registration is always a whole multiple of this.
var approvedLimitUnit = decimal.NewFromInt(100000)

type Customer struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	PhoneNumber   string
	Age           int
	MonthlySalary decimal.Decimal
	ApprovedLimit decimal.Decimal
	CurrentDebt   decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ApprovedLimitFor derives the maximum aggregate active-loan exposure from a
// monthly salary: round(36 * salary / 100000) * 100000.
func ApprovedLimitFor(monthlySalary decimal.Decimal) decimal.Decimal {
	return monthlySalary.Mul(decimal.NewFromInt(36)).Div(approvedLimitUnit).Round(0).Mul(approvedLimitUnit)
}

// NewCustomer validates registration input and builds a Customer with the
// derived approved limit and zero current debt.
func NewCustomer(firstName, lastName, phoneNumber string, age int, monthlySalary decimal.Decimal) (*Customer, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	phoneNumber = strings.TrimSpace(phoneNumber)

	if firstName == "" {
		return nil, apperrors.NewValidationError("first_name", "cannot be empty")
	}
	if lastName == "" {
		return nil, apperrors.NewValidationError("last_name", "cannot be empty")
	}
	if phoneNumber == "" {
		return nil, apperrors.NewValidationError("phone_number", "cannot be empty")
	}
	for _, r := range phoneNumber {
		if !unicode.IsDigit(r) {
			return nil, apperrors.NewValidationError("phone_number", fmt.Sprintf("must contain only digits, got %q", phoneNumber))
		}
	}
	if age <= 0 {
		return nil, apperrors.NewValidationError("age", "must be a positive integer")
	}
	if monthlySalary.IsNegative() {
		return nil, apperrors.NewValidationError("monthly_income", "cannot be negative")
	}

	return &Customer{
		FirstName:     firstName,
		LastName:      lastName,
		PhoneNumber:   phoneNumber,
		Age:           age,
		MonthlySalary: monthlySalary,
		ApprovedLimit: ApprovedLimitFor(monthlySalary),
		CurrentDebt:   decimal.Zero,
	}, nil
}
