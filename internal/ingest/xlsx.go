package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type xlsxSource struct {
	rows [][]string
}

func (s *xlsxSource) Rows() ([][]string, error) {
	return s.rows, nil
}

// OpenXLSX reads the first sheet of an xlsx workbook into memory. The whole
// sheet is materialized up front; ingestion files are small exports, not
// streaming feeds.
func OpenXLSX(path string) (RowSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
	}

	return &xlsxSource{rows: rows}, nil
}
