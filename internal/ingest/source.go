// Package ingest implements the batch load of customer and loan records from
// external tabular sources, plus the aggregation pass that recomputes each
// customer's current outstanding debt.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RowSource yields the raw rows of one tabular data source, header row
// included. Implementations own the file format; the job only sees strings.
type RowSource interface {
	Rows() ([][]string, error)
}

// SourceOpener turns a data location into a RowSource. The job takes one so
// tests can feed in-memory fixtures.
type SourceOpener func(path string) (RowSource, error)

// Date layouts accepted in loan rows. Spreadsheet exports are inconsistent
// about formatting, so both ISO and the slash-separated cell formats are
// tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
}

func parseDate(field, value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date in %s: %q", field, value)
}

func parseInt(field, value string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer in %s: %q", field, value)
	}
	return n, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number in %s: %q", field, value)
	}
	return d, nil
}
