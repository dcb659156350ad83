package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/queue"

	"github.com/shopspring/decimal"
)

// Result counts what one ingestion run did. Row failures are logged and
// counted, never fatal; only a source that cannot be opened aborts the run.
type Result struct {
	CustomersCreated   int
	CustomerRowsFailed int
	LoansCreated       int
	LoanRowsFailed     int
	DebtsUpdated       int
	DebtUpdatesFailed  int
}

// Job loads customer and loan rows into the store and then recomputes every
// ingested customer's current debt from their active loans.
//
// Re-running the load against the same files attempts the same inserts
// again; duplicate ids fail per row and are logged. The aggregation pass is
// idempotent and covers every parseable customer row, so a re-run still
// refreshes debts even when every insert collides.
type Job struct {
	customerRepo customer.CustomerRepository
	loanRepo     loan.Repository
	open         SourceOpener
	logger       *slog.Logger
	now          func() time.Time
}

func NewJob(customerRepo customer.CustomerRepository, loanRepo loan.Repository, open SourceOpener, logger *slog.Logger) *Job {
	if customerRepo == nil || loanRepo == nil || open == nil {
		panic("ingest job dependencies cannot be nil")
	}
	return &Job{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		open:         open,
		logger:       logger.With(slog.String("component", "ingestJob")),
		now:          time.Now,
	}
}

// HandleTask adapts Run to the worker's task-handler signature.
func (j *Job) HandleTask(ctx context.Context, body []byte) error {
	var payload queue.IngestSpreadsheetsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("invalid ingestion payload: %w", err)
	}
	_, err := j.Run(ctx, payload)
	return err
}

func (j *Job) Run(ctx context.Context, payload queue.IngestSpreadsheetsPayload) (*Result, error) {
	start := j.now()
	j.logger.InfoContext(ctx, "Starting spreadsheet ingestion",
		slog.String("customerData", payload.CustomerDataPath),
		slog.String("loanData", payload.LoanDataPath))

	customerRows, err := j.openRows(payload.CustomerDataPath)
	if err != nil {
		return nil, err
	}
	loanRows, err := j.openRows(payload.LoanDataPath)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	ingestedIDs := j.loadCustomers(ctx, customerRows, result)
	j.loadLoans(ctx, loanRows, result)
	j.recomputeDebts(ctx, ingestedIDs, result)

	monitoring.RecordIngestRun(time.Since(start))
	j.logger.InfoContext(ctx, "Spreadsheet ingestion finished",
		slog.Int("customersCreated", result.CustomersCreated),
		slog.Int("customerRowsFailed", result.CustomerRowsFailed),
		slog.Int("loansCreated", result.LoansCreated),
		slog.Int("loanRowsFailed", result.LoanRowsFailed),
		slog.Int("debtsUpdated", result.DebtsUpdated),
		slog.Int("debtUpdatesFailed", result.DebtUpdatesFailed),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// openRows opens a source and strips its header row.
func (j *Job) openRows(path string) ([][]string, error) {
	source, err := j.open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data source %s: %w", path, err)
	}
	rows, err := source.Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to read data source %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// loadCustomers creates one customer per row with zero current debt and
// returns the ids of every parseable row. Insert failures (duplicate ids on
// a re-run, most commonly) still yield the id: the aggregation pass must
// refresh debts for customers that were loaded in an earlier run.
func (j *Job) loadCustomers(ctx context.Context, rows [][]string, result *Result) []int64 {
	var ids []int64
	for i, row := range rows {
		cust, err := parseCustomerRow(row)
		if err != nil {
			result.CustomerRowsFailed++
			monitoring.RecordIngestRow("customer", "error")
			j.logger.WarnContext(ctx, "Skipping customer row", slog.Int("row", i+2), slog.Any("error", err))
			continue
		}
		ids = append(ids, cust.CustomerID)
		if err := j.customerRepo.SaveWithID(ctx, cust); err != nil {
			result.CustomerRowsFailed++
			monitoring.RecordIngestRow("customer", "error")
			j.logger.WarnContext(ctx, "Failed to save customer row", slog.Int("row", i+2), slog.Any("error", err))
			continue
		}
		result.CustomersCreated++
		monitoring.RecordIngestRow("customer", "ok")
	}
	j.logger.InfoContext(ctx, "Customer rows ingested", slog.Int("created", result.CustomersCreated))
	return ids
}

func (j *Job) loadLoans(ctx context.Context, rows [][]string, result *Result) {
	for i, row := range rows {
		l, err := parseLoanRow(row)
		if err == nil {
			err = j.loanRepo.SaveWithID(ctx, l)
		}
		if err != nil {
			result.LoanRowsFailed++
			monitoring.RecordIngestRow("loan", "error")
			j.logger.WarnContext(ctx, "Skipping loan row", slog.Int("row", i+2), slog.Any("error", err))
			continue
		}
		result.LoansCreated++
		monitoring.RecordIngestRow("loan", "ok")
	}
	j.logger.InfoContext(ctx, "Loan rows ingested", slog.Int("created", result.LoansCreated))
}

// recomputeDebts sets each listed customer's current debt to the sum of
// principal over their active loans, zero when they have none.
func (j *Job) recomputeDebts(ctx context.Context, customerIDs []int64, result *Result) {
	now := j.now()
	for _, id := range customerIDs {
		debt, err := j.loanRepo.SumActiveLoanAmount(ctx, id, now)
		if err == nil {
			err = j.customerRepo.UpdateCurrentDebt(ctx, id, debt)
		}
		if err != nil {
			result.DebtUpdatesFailed++
			j.logger.WarnContext(ctx, "Failed to update current debt", slog.Int64("customerID", id), slog.Any("error", err))
			continue
		}
		result.DebtsUpdated++
		j.logger.DebugContext(ctx, "Updated current debt", slog.Int64("customerID", id), slog.String("debt", debt.String()))
	}
	j.logger.InfoContext(ctx, "Current debt aggregation finished", slog.Int("updated", result.DebtsUpdated))
}

// parseCustomerRow maps [customer_id, first_name, last_name, age,
// phone_number, monthly_salary, approved_limit] onto a Customer. The
// approved limit is taken from the file as-is rather than rederived; bulk
// data is treated as authoritative history.
func parseCustomerRow(row []string) (*customer.Customer, error) {
	if len(row) < 7 {
		return nil, fmt.Errorf("customer row has %d fields, want 7", len(row))
	}

	id, err := parseInt("customer_id", row[0])
	if err != nil {
		return nil, err
	}
	age, err := parseInt("age", row[3])
	if err != nil {
		return nil, err
	}
	salary, err := parseDecimal("monthly_salary", row[5])
	if err != nil {
		return nil, err
	}
	limit, err := parseDecimal("approved_limit", row[6])
	if err != nil {
		return nil, err
	}

	return &customer.Customer{
		CustomerID:    id,
		FirstName:     row[1],
		LastName:      row[2],
		Age:           int(age),
		PhoneNumber:   row[4],
		MonthlySalary: salary,
		ApprovedLimit: limit,
		CurrentDebt:   decimal.Zero,
	}, nil
}

// parseLoanRow maps [customer_id, loan_id, loan_amount, tenure,
// interest_rate, monthly_payment, emis_paid_on_time, start_date, end_date]
// onto a Loan. Either date failing to parse fails the whole row.
func parseLoanRow(row []string) (*loan.Loan, error) {
	if len(row) < 9 {
		return nil, fmt.Errorf("loan row has %d fields, want 9", len(row))
	}

	customerID, err := parseInt("customer_id", row[0])
	if err != nil {
		return nil, err
	}
	loanID, err := parseInt("loan_id", row[1])
	if err != nil {
		return nil, err
	}
	amount, err := parseDecimal("loan_amount", row[2])
	if err != nil {
		return nil, err
	}
	tenure, err := parseInt("tenure", row[3])
	if err != nil {
		return nil, err
	}
	rate, err := parseDecimal("interest_rate", row[4])
	if err != nil {
		return nil, err
	}
	repayment, err := parseDecimal("monthly_payment", row[5])
	if err != nil {
		return nil, err
	}
	emisPaid, err := parseInt("emis_paid_on_time", row[6])
	if err != nil {
		return nil, err
	}
	startDate, err := parseDate("start_date", row[7])
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate("end_date", row[8])
	if err != nil {
		return nil, err
	}

	return &loan.Loan{
		LoanID:           loanID,
		CustomerID:       customerID,
		LoanAmount:       amount,
		Tenure:           int(tenure),
		InterestRate:     rate,
		MonthlyRepayment: repayment,
		EMIsPaidOnTime:   int(emisPaid),
		StartDate:        startDate,
		EndDate:          endDate,
	}, nil
}
