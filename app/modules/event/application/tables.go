package eventservice

import (
	"context"
	"fmt"
	"io"
	"strings"

	eventdb "github.com/tnt-tag-history/tnt-history/app/modules/event/infrastructure/repositories"
	"github.com/tnt-tag-history/tnt-history/pkg/results"
	"github.com/xuri/excelize/v2"
)

// ImportTable reads the first sheet of an xlsx workbook into a Table. The
// first non-empty row becomes the headers; shorter rows are padded and longer
// rows rejected.
func (s *EventService) ImportTable(ctx context.Context, title string, r io.Reader) (results.OperationResult[eventdb.Table, error], error) {
	return withTelemetry(s, ctx, "ImportTable", title, func(ctx context.Context) (results.OperationResult[eventdb.Table, error], error) {
		table, err := parseWorkbook(title, r)
		if err != nil {
			return results.FailureResult[eventdb.Table, error](err), nil
		}
		return results.SuccessResult[eventdb.Table, error](table), nil
	})
}

func parseWorkbook(title string, r io.Reader) (eventdb.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return eventdb.Table{}, fmt.Errorf("%w: failed to open XLSX file: %v", ErrInvalidTable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return eventdb.Table{}, fmt.Errorf("%w: XLSX file has no sheets", ErrInvalidTable)
	}

	sheetName := sheets[0]
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return eventdb.Table{}, fmt.Errorf("%w: failed to read sheet %q: %v", ErrInvalidTable, sheetName, err)
	}

	var headers []string
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		row = trimRow(row)
		if len(row) == 0 {
			continue
		}
		if headers == nil {
			headers = row
			continue
		}
		body = append(body, row)
	}
	if headers == nil {
		return eventdb.Table{}, fmt.Errorf("%w: sheet %q is empty", ErrInvalidTable, sheetName)
	}

	if strings.TrimSpace(title) == "" {
		title = sheetName
	}
	table := eventdb.Table{Title: strings.TrimSpace(title), Headers: headers, Rows: make([][]string, 0, len(body))}
	for _, row := range body {
		if len(row) > len(headers) {
			return eventdb.Table{}, fmt.Errorf("%w: row has %d cells but only %d headers", ErrInvalidTable, len(row), len(headers))
		}
		padded := make([]string, len(headers))
		copy(padded, row)
		table.Rows = append(table.Rows, padded)
	}
	return table, nil
}

// trimRow drops trailing blank cells and trims the rest.
func trimRow(row []string) []string {
	out := make([]string, len(row))
	last := -1
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}

// validateTable rejects tables without headers and rows wider than their headers.
func validateTable(table eventdb.Table) error {
	if len(table.Headers) == 0 {
		return fmt.Errorf("%w: %q has no headers", ErrInvalidTable, table.Title)
	}
	for i, row := range table.Rows {
		if len(row) > len(table.Headers) {
			return fmt.Errorf("%w: %q row %d is wider than its headers", ErrInvalidTable, table.Title, i+1)
		}
	}
	return nil
}
