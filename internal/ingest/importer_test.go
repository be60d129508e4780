package ingest

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gitlab.com/yelinaung/po-tracker/internal/models"
)

type memStore struct {
	created []*models.Transaction
	seen    map[string]bool
}

func newMemStore(existing ...string) *memStore {
	seen := make(map[string]bool)
	for _, d := range existing {
		seen[d] = true
	}
	return &memStore{seen: seen}
}

func (m *memStore) ExistsByDescription(_ context.Context, description string) (bool, error) {
	return m.seen[models.NormalizeDescription(description)], nil
}

func (m *memStore) Create(_ context.Context, tx *models.Transaction) error {
	m.seen[tx.Description] = true
	m.created = append(m.created, tx)
	return nil
}

// buildWorkbook writes a header row plus the given data rows into an
// in-memory xlsx file.
func buildWorkbook(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	header := []any{"Status", "Debit", "Description", "Post Date"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cellRef := fmt.Sprintf("A%d", i+2)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &r))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestImportTransactions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("imports posted rows", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		wb := buildWorkbook(t, [][]any{
			{"posted", "42.50", "AMZN Mktp 1234", "2026-05-01"},
			{"Posted", "$1,299.00", "Dell Order 5678", "05/02/2026"},
		})

		result, err := ImportTransactions(ctx, wb, store)
		require.NoError(t, err)
		require.Equal(t, 2, result.Imported)
		require.Zero(t, result.Skipped)
		require.Len(t, store.created, 2)
		require.Equal(t, "42.5", store.created[0].DebitAmount.String())
		require.Equal(t, "1299", store.created[1].DebitAmount.String())
		require.Equal(t, models.TransactionStatusPosted, store.created[1].Status)
	})

	t.Run("skips pending and malformed rows without aborting", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		wb := buildWorkbook(t, [][]any{
			{"pending", "10.00", "Not posted yet", "2026-05-01"},
			{"posted", "0", "Zero debit", "2026-05-01"},
			{"posted", "abc", "Bad amount", "2026-05-01"},
			{"posted", "15.00", "", "2026-05-01"},
			{"posted", "15.00", "Good row", "not a date"},
			{"posted", "20.00", "Actually fine", "2026-05-03"},
		})

		result, err := ImportTransactions(ctx, wb, store)
		require.NoError(t, err)
		require.Equal(t, 1, result.Imported)
		require.Equal(t, 5, result.Skipped)
		require.Len(t, result.Errors, 5)
		require.Equal(t, 2, result.Errors[0].Row, "row numbers count from the sheet, not the data")
	})

	t.Run("duplicate description is skipped", func(t *testing.T) {
		t.Parallel()
		store := newMemStore("AMZN Mktp 1234")
		wb := buildWorkbook(t, [][]any{
			{"posted", "42.50", "AMZN Mktp 1234", "2026-05-01"},
			{"posted", "42.50", "  AMZN Mktp 1234  ", "2026-05-01"},
			{"posted", "9.99", "Something new", "2026-05-01"},
		})

		result, err := ImportTransactions(ctx, wb, store)
		require.NoError(t, err)
		require.Equal(t, 1, result.Imported)
		require.Equal(t, 2, result.Skipped, "stored duplicate and trimmed duplicate both skip")
		require.Equal(t, "Something new", store.created[0].Description)
	})

	t.Run("duplicate within the same file is skipped", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		wb := buildWorkbook(t, [][]any{
			{"posted", "42.50", "Same twice", "2026-05-01"},
			{"posted", "42.50", "Same twice", "2026-05-01"},
		})

		result, err := ImportTransactions(ctx, wb, store)
		require.NoError(t, err)
		require.Equal(t, 1, result.Imported)
		require.Equal(t, 1, result.Skipped)
	})

	t.Run("missing required column fails", func(t *testing.T) {
		t.Parallel()
		f := excelize.NewFile()
		defer f.Close()
		header := []any{"Status", "Description", "Post Date"}
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
		var buf bytes.Buffer
		require.NoError(t, f.Write(&buf))

		_, err := ImportTransactions(ctx, bytes.NewReader(buf.Bytes()), newMemStore())
		require.ErrorContains(t, err, "debit")
	})

	t.Run("not an xlsx file", func(t *testing.T) {
		t.Parallel()
		_, err := ImportTransactions(ctx, bytes.NewReader([]byte("just text")), newMemStore())
		require.Error(t, err)
	})
}
