package records

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name of an exported field set.
const ExportSheet = "Fields"

// ExportContentType is the media type of an exported workbook.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeaders = []any{
	"Record ID", "Document", "Type", "Page", "X %", "Y %", "Width %", "Height %",
	"Role", "Identity", "Label", "Signed", "Signed By", "Title", "Value", "Signed At", "Image",
}

func (r *repo) Export(ctx context.Context, documentID uuid.UUID, w io.Writer) error {
	recs, err := r.List(ctx, documentID)
	if err != nil {
		return err
	}
	return WriteWorkbook(w, recs)
}

// WriteWorkbook writes recs as a single-sheet xlsx workbook, one row per record.
func WriteWorkbook(w io.Writer, recs []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(ExportSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := exportRow(rec)
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func exportRow(rec Record) []any {
	var height any
	if rec.HeightPercent != nil {
		height = *rec.HeightPercent
	}

	signedAt := ""
	if rec.SignedAt != nil {
		signedAt = rec.SignedAt.UTC().Format(time.RFC3339)
	}

	return []any{
		rec.ID,
		rec.DocumentFilename,
		string(rec.Type),
		rec.PageNumber,
		rec.XPercent,
		rec.YPercent,
		rec.WidthPercent,
		height,
		string(rec.AssignedRole),
		deref(rec.AssignedIdentityID),
		deref(rec.Label),
		rec.IsSigned,
		deref(rec.SignedByName),
		deref(rec.SignedByTitle),
		deref(rec.SignedValue),
		signedAt,
		deref(rec.SignatureURL),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
