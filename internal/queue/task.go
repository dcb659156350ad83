package queue

// TaskIngestSpreadsheets is the single task this system dispatches: a batch
// load of customer and loan rows from two spreadsheet locations followed by
// the debt aggregation pass.
const TaskIngestSpreadsheets = "ingest.spreadsheets"

type IngestSpreadsheetsPayload struct {
	CustomerDataPath string `json:"customer_data_path"`
	LoanDataPath     string `json:"loan_data_path"`
}
