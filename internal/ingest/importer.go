// Package ingest imports bank-exported transaction spreadsheets. Rows are
// processed sequentially; an invalid row is skipped and recorded, never
// aborting the batch.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// TransactionStore is the slice of the transaction repository the importer
// needs.
type TransactionStore interface {
	ExistsByDescription(ctx context.Context, description string) (bool, error)
	Create(ctx context.Context, tx *models.Transaction) error
}

// RowError records why one spreadsheet row was skipped.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result summarizes an import run.
type Result struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Expected column headers, matched case-insensitively in the header row.
const (
	colStatus      = "status"
	colDebit       = "debit"
	colDescription = "description"
	colPostDate    = "postdate"
)

// postDateFormats are tried in order when parsing the post date cell.
// Excel sometimes hands dates over as text in any of these shapes.
var postDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"2006-01-02 15:04:05",
	"01/02/06",
}

// ImportTransactions reads the first sheet of an xlsx workbook and stores
// every valid, not-yet-seen transaction. A row is accepted only if its
// status is "posted" (case-insensitive), its debit is positive and its
// description is non-blank and not already stored.
func ImportTransactions(ctx context.Context, r io.Reader, store TransactionStore) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Result{}, nil
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		tx, reason := parseRow(row, cols)
		if reason == "" {
			exists, err := store.ExistsByDescription(ctx, tx.Description)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}
			if exists {
				reason = "duplicate description"
			}
		}
		if reason != "" {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Reason: reason})
			continue
		}
		if err := store.Create(ctx, tx); err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		result.Imported++
	}

	return result, nil
}

// mapHeader resolves column positions from the header row.
func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, cell := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cell), " ", ""))
		switch key {
		case colStatus, colDebit, colDescription, colPostDate:
			cols[key] = i
		}
	}
	for _, required := range []string{colStatus, colDebit, colDescription, colPostDate} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return cols, nil
}

// parseRow validates one data row. An empty reason means the row is good.
func parseRow(row []string, cols map[string]int) (*models.Transaction, string) {
	cell := func(name string) string {
		idx := cols[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	status := cell(colStatus)
	if !strings.EqualFold(status, models.TransactionStatusPosted) {
		return nil, fmt.Sprintf("status %q is not posted", status)
	}

	description := models.NormalizeDescription(cell(colDescription))
	if description == "" {
		return nil, "empty description"
	}

	debitStr := strings.ReplaceAll(strings.TrimPrefix(cell(colDebit), "$"), ",", "")
	debit, err := decimal.NewFromString(debitStr)
	if err != nil {
		return nil, fmt.Sprintf("unparseable debit %q", cell(colDebit))
	}
	if !debit.IsPositive() {
		return nil, fmt.Sprintf("debit %s is not positive", debit.String())
	}

	postDate, ok := parsePostDate(cell(colPostDate))
	if !ok {
		return nil, fmt.Sprintf("unparseable post date %q", cell(colPostDate))
	}

	return &models.Transaction{
		ID:          uuid.NewString(),
		PostDate:    postDate,
		Description: description,
		DebitAmount: debit.Round(2),
		Status:      models.TransactionStatusPosted,
	}, ""
}

func parsePostDate(s string) (time.Time, bool) {
	for _, layout := range postDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
