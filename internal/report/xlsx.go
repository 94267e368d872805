// Package report renders stored evaluations as spreadsheets
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet written by WriteEvaluations
const SheetName = "Evaluations"

// Header is the first row of the evaluations sheet
var Header = []string{"ID", "Kind", "Subject", "Tier", "Score", "Reasoning", "Created At"}

var columnWidths = []float64{38, 14, 20, 16, 8, 80, 22}

// WriteEvaluations writes the evaluations as an xlsx workbook to w, one row
// per evaluation in the order given
func WriteEvaluations(w io.Writer, evals []entities.Evaluation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	for i, e := range evals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			e.ID,
			string(e.Kind),
			e.Subject,
			e.Tier,
			e.Score,
			reasoningCell(e),
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write evaluation %s: %w", e.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func reasoningCell(e entities.Evaluation) string {
	if len(e.RecommendedActions) == 0 {
		return e.Reasoning
	}
	return e.Reasoning + "\n- " + strings.Join(e.RecommendedActions, "\n- ")
}
