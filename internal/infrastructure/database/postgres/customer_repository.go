package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
)

// DBPool is the subset of pgxpool.Pool the repositories need; pgxmock
// satisfies it for tests.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

const customerColumns = `id, first_name, last_name, phone_number, age, monthly_salary, approved_limit, current_debt, created_at, updated_at`

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger.With("component", "CustomerRepository")}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	query := `
	INSERT INTO customers (first_name, last_name, phone_number, age, monthly_salary, approved_limit, current_debt, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cust.FirstName, cust.LastName, cust.PhoneNumber, cust.Age,
		cust.MonthlySalary, cust.ApprovedLimit, cust.CurrentDebt,
	).Scan(&cust.CustomerID, &cust.CreatedAt, &cust.UpdatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert customer", "error", err)
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer created in DB", "customer_id", cust.CustomerID)
	return nil
}

func (r *CustomerRepository) SaveWithID(ctx context.Context, cust *customer.Customer) error {
	query := `
	INSERT INTO customers (id, first_name, last_name, phone_number, age, monthly_salary, approved_limit, current_debt, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`

	_, err := r.db.Exec(ctx, query,
		cust.CustomerID, cust.FirstName, cust.LastName, cust.PhoneNumber, cust.Age,
		cust.MonthlySalary, cust.ApprovedLimit, cust.CurrentDebt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert customer %d: %w", apperrors.ErrDatabase, cust.CustomerID, err)
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	query := `
	SELECT ` + customerColumns + `
	FROM customers
	WHERE id = $1`

	var cust customer.Customer
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&cust.CustomerID, &cust.FirstName, &cust.LastName, &cust.PhoneNumber, &cust.Age,
		&cust.MonthlySalary, &cust.ApprovedLimit, &cust.CurrentDebt, &cust.CreatedAt, &cust.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		r.logger.ErrorContext(ctx, "Failed to query customer", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("%w: failed to query customer %d: %w", apperrors.ErrDatabase, customerID, err)
	}

	return &cust, nil
}

func (r *CustomerRepository) UpdateCurrentDebt(ctx context.Context, customerID int64, debt decimal.Decimal) error {
	query := `
	UPDATE customers
	SET current_debt = $1,
		updated_at = NOW()
	WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, debt, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update current debt", "customer_id", customerID, "error", err)
		return fmt.Errorf("%w: failed to update current debt for customer %d: %w", apperrors.ErrDatabase, customerID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
	}

	return nil
}

func (r *CustomerRepository) ListIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT id FROM customers ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list customer ids: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan customer id: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: customer id iteration failed: %w", apperrors.ErrDatabase, err)
	}

	return ids, nil
}
