package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"credit-engine/internal/api/handler"
	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) RegisterCustomer(ctx context.Context, firstName, lastName, phoneNumber string, age int, monthlyIncome decimal.Decimal) (*customer.Customer, error) {
	ret := _m.Called(ctx, firstName, lastName, phoneNumber, age, monthlyIncome)

	var r0 *customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string, int, decimal.Decimal) *customer.Customer); ok {
		r0 = rf(ctx, firstName, lastName, phoneNumber, age, monthlyIncome)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*customer.Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, string, int, decimal.Decimal) error); ok {
		r1 = rf(ctx, firstName, lastName, phoneNumber, age, monthlyIncome)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *customer.Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*customer.Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func TestRegisterCustomer(t *testing.T) {
	mockService := new(MockCustomerService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := handler.NewCustomerHandler(mockService, logger)

	t.Run("success", func(t *testing.T) {
		income := decimal.NewFromInt(50000)
		reqBody := dto.RegisterCustomerRequest{
			FirstName:     "Aarav",
			LastName:      "Sharma",
			PhoneNumber:   "9876543210",
			Age:           30,
			MonthlyIncome: income,
		}
		reqBodyBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(reqBodyBytes))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		mockCustomer := &customer.Customer{
			CustomerID:    1,
			FirstName:     "Aarav",
			LastName:      "Sharma",
			PhoneNumber:   "9876543210",
			Age:           30,
			MonthlySalary: income,
			ApprovedLimit: decimal.NewFromInt(1800000),
		}
		mockService.On("RegisterCustomer", mock.Anything, "Aarav", "Sharma", "9876543210", 30, income).Return(mockCustomer, nil)

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.RegisterCustomerResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), resp.CustomerID)
		assert.Equal(t, "Aarav Sharma", resp.Name)
		assert.True(t, resp.ApprovedLimit.Equal(decimal.NewFromInt(1800000)))
		mockService.AssertExpectations(t)
	})

	t.Run("invalid payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "RegisterCustomer")
	})

	t.Run("non-numeric phone number", func(t *testing.T) {
		reqBody := dto.RegisterCustomerRequest{
			FirstName:     "Aarav",
			LastName:      "Sharma",
			PhoneNumber:   "98765-43210",
			Age:           30,
			MonthlyIncome: decimal.NewFromInt(50000),
		}
		reqBodyBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(reqBodyBytes))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "RegisterCustomer")
	})

	t.Run("service validation failure", func(t *testing.T) {
		income := decimal.NewFromInt(50000)
		reqBody := dto.RegisterCustomerRequest{
			FirstName:     "Maya",
			LastName:      "Iyer",
			PhoneNumber:   "9000000000",
			Age:           25,
			MonthlyIncome: income,
		}
		reqBodyBytes, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(reqBodyBytes))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		mockService.On("RegisterCustomer", mock.Anything, "Maya", "Iyer", "9000000000", 25, income).
			Return(nil, apperrors.NewValidationError("phone_number", "already registered"))

		handler.RegisterCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, "phone_number", resp.Error.Field)
		mockService.AssertExpectations(t)
	})
}
