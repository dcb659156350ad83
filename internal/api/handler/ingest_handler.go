package handler

import (
	"log/slog"
	"net/http"

	"credit-engine/internal/config"
	"credit-engine/internal/queue"
)

type IngestHandler struct {
	publisher queue.Publisher
	cfg       config.IngestConfig
	logger    *slog.Logger
}

func NewIngestHandler(publisher queue.Publisher, cfg config.IngestConfig, l *slog.Logger) *IngestHandler {
	if publisher == nil {
		panic("task publisher cannot be nil")
	}
	return &IngestHandler{
		publisher: publisher,
		cfg:       cfg,
		logger:    l.With("component", "IngestHandler"),
	}
}

// TriggerIngestion handles GET /ingest. It only enqueues the ingestion task;
// the worker loads the spreadsheets asynchronously, so the response is a 202
// with no row counts.
func (h *IngestHandler) TriggerIngestion(w http.ResponseWriter, r *http.Request) {
	payload := queue.IngestSpreadsheetsPayload{
		CustomerDataPath: h.cfg.CustomerDataPath,
		LoanDataPath:     h.cfg.LoanDataPath,
	}

	if err := h.publisher.Enqueue(r.Context(), queue.TaskIngestSpreadsheets, payload); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to enqueue ingestion task", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Ingestion task enqueued",
		slog.String("customerData", payload.CustomerDataPath),
		slog.String("loanData", payload.LoanDataPath))
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Ingestion task added to the queue"})
}
