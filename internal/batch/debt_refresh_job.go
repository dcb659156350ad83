package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
)

// DebtRefreshJob sweeps the whole customer book and recomputes each
// customer's current debt from their active loans. It keeps the aggregate
// honest between ingestion runs: loans expire by date, so a debt figure that
// was correct yesterday can be stale today without any write happening.
type DebtRefreshJob struct {
	customerRepo customer.CustomerRepository
	loanRepo     loan.Repository
	logger       *slog.Logger
}

func NewDebtRefreshJob(customerRepo customer.CustomerRepository, loanRepo loan.Repository, logger *slog.Logger) *DebtRefreshJob {
	if customerRepo == nil || loanRepo == nil || logger == nil {
		panic("DebtRefreshJob dependencies cannot be nil")
	}
	return &DebtRefreshJob{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		logger:       logger.With("job", "DebtRefresh"),
	}
}

func (j *DebtRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer debt refresh job.")

	ids, err := j.customerRepo.ListIDs(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list customers, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list customers: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched customer ids.", slog.Int("count", len(ids)))

	var updated, failed int
	now := time.Now()
	for _, id := range ids {
		if ctx.Err() != nil {
			j.logger.WarnContext(ctx, "Debt refresh job cancelled.", slog.Int("updated", updated))
			return ctx.Err()
		}

		debt, err := j.loanRepo.SumActiveLoanAmount(ctx, id, now)
		if err == nil {
			err = j.customerRepo.UpdateCurrentDebt(ctx, id, debt)
		}
		if err != nil {
			failed++
			j.logger.WarnContext(ctx, "Failed to refresh debt for customer", slog.Int64("customerID", id), slog.Any("error", err))
			continue
		}
		updated++
	}

	j.logger.InfoContext(ctx, "Customer debt refresh job finished.",
		slog.Int("updated", updated),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}
