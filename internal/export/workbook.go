// Package export renders purchase orders into a multi-sheet xlsx workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gitlab.com/yelinaung/po-tracker/internal/allocation"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// Sheet names in the generated workbook.
const (
	SheetSummary     = "Purchase Orders"
	SheetLineItems   = "Line Items"
	SheetAllocations = "Budget Allocation"
)

// GeneratePOWorkbook builds an xlsx workbook with a summary sheet, a
// line-items sheet and, when any order splits across sub-organizations, a
// budget-allocation sheet. Single-org orders show the normalized one-entry
// form on the summary sheet only.
func GeneratePOWorkbook(pos []models.PurchaseOrder) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, pos); err != nil {
		return nil, err
	}
	if err := writeLineItems(f, pos); err != nil {
		return nil, err
	}
	if hasMultiOrg(pos) {
		if err := writeAllocations(f, pos); err != nil {
			return nil, err
		}
	}

	// The default sheet excelize creates is replaced by the summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, pos []models.PurchaseOrder) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", SheetSummary, err)
	}
	headers := []string{"ID", "Name", "Status", "Creator", "Sub-Organizations",
		"Total", "Approved By", "Purchased By", "Created", "Updated"}
	if err := writeRow(f, SheetSummary, 1, headers); err != nil {
		return err
	}
	for i := range pos {
		po := &pos[i]
		row := []any{
			po.ID,
			po.Name,
			string(po.Status),
			po.CreatorName,
			orgDisplay(po),
			po.TotalAmount.StringFixed(2),
			po.ApprovedByName,
			po.PurchasedByName,
			po.CreatedAt.Format("2006-01-02"),
			po.UpdatedAt.Format("2006-01-02"),
		}
		if err := writeRowAny(f, SheetSummary, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeLineItems(f *excelize.File, pos []models.PurchaseOrder) error {
	if _, err := f.NewSheet(SheetLineItems); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", SheetLineItems, err)
	}
	headers := []string{"PO ID", "PO Name", "Vendor", "Item", "SKU",
		"Quantity", "Unit Price", "Total Price", "Purchased"}
	if err := writeRow(f, SheetLineItems, 1, headers); err != nil {
		return err
	}
	rowNum := 2
	for i := range pos {
		po := &pos[i]
		for _, li := range po.LineItems {
			row := []any{
				po.ID,
				po.Name,
				li.Vendor,
				li.ItemName,
				li.SKU,
				li.Quantity,
				li.UnitPrice.StringFixed(2),
				li.TotalPrice().StringFixed(2),
				li.Purchased,
			}
			if err := writeRowAny(f, SheetLineItems, rowNum, row); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}

func writeAllocations(f *excelize.File, pos []models.PurchaseOrder) error {
	if _, err := f.NewSheet(SheetAllocations); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", SheetAllocations, err)
	}
	headers := []string{"PO ID", "PO Name", "Sub-Organization", "Allocated Amount", "Percentage"}
	if err := writeRow(f, SheetAllocations, 1, headers); err != nil {
		return err
	}
	rowNum := 2
	for i := range pos {
		po := &pos[i]
		entries := allocation.Normalize(po)
		if len(entries) < 2 {
			continue
		}
		for _, a := range entries {
			row := []any{
				po.ID,
				po.Name,
				a.SubOrgName,
				a.Amount.StringFixed(2),
				fmt.Sprintf("%.2f%%", a.Percentage),
			}
			if err := writeRowAny(f, SheetAllocations, rowNum, row); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}

// orgDisplay renders the allocation for the summary column; the legacy
// single-org and single-entry list forms display identically.
func orgDisplay(po *models.PurchaseOrder) string {
	entries := allocation.Normalize(po)
	switch len(entries) {
	case 0:
		return ""
	case 1:
		return entries[0].SubOrgName
	}
	out := ""
	for i, a := range entries {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s (%.0f%%)", a.SubOrgName, a.Percentage)
	}
	return out
}

func hasMultiOrg(pos []models.PurchaseOrder) bool {
	for i := range pos {
		if len(allocation.Normalize(&pos[i])) > 1 {
			return true
		}
	}
	return false
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	anyVals := make([]any, len(values))
	for i, v := range values {
		anyVals[i] = v
	}
	return writeRowAny(f, sheet, row, anyVals)
}

func writeRowAny(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}
