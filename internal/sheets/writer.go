package sheets

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/mtr-normalizer/internal/model"
)

// MetadataSheet is added to every output workbook.
const MetadataSheet = "Metadata"

// FailedCommentPrefix starts the comment written for failed products.
const FailedCommentPrefix = "Ошибка обработки: "

// Writer writes normalized results into a copy of the source workbook.
type Writer struct {
	now func() time.Time
}

// NewWriter creates a writer.
func NewWriter() *Writer {
	return &Writer{now: time.Now}
}

// Write copies doc's workbook to outPath, filling the normalized unit,
// OKPD2 and comment cells of every product row, and adds a Metadata sheet.
// Missing output columns are appended after the last header.
func (w *Writer) Write(doc *Document, products []*model.Product, outPath string) error {
	f, err := excelize.OpenFile(doc.Path)
	if err != nil {
		return fmt.Errorf("failed to open source workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	columns, err := ensureOutputColumns(f, doc)
	if err != nil {
		return err
	}

	for _, p := range products {
		if p.Row <= doc.HeaderRow {
			continue
		}
		values := map[string]string{
			FieldNormalizedUnit: p.NormalizedUnit,
			FieldOKPD2Code:      p.OKPD2Code,
			FieldComment:        commentFor(p),
		}
		for field, value := range values {
			cell, err := excelize.CoordinatesToCellName(columns[field], p.Row)
			if err != nil {
				return fmt.Errorf("invalid cell for row %d: %w", p.Row, err)
			}
			if err := f.SetCellValue(doc.Sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write %s: %w", cell, err)
			}
		}
	}

	if err := w.writeMetadata(f, products); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func ensureOutputColumns(f *excelize.File, doc *Document) (map[string]int, error) {
	columns := make(map[string]int, len(outputHeaders))
	last := 0
	for _, c := range doc.Columns {
		last = max(last, c.Index)
	}

	for _, field := range []string{FieldNormalizedUnit, FieldOKPD2Code, FieldComment} {
		if idx := doc.Column(field); idx > 0 {
			columns[field] = idx
			continue
		}
		last++
		cell, err := excelize.CoordinatesToCellName(last, doc.HeaderRow)
		if err != nil {
			return nil, fmt.Errorf("invalid header cell: %w", err)
		}
		if err := f.SetCellValue(doc.Sheet, cell, outputHeaders[field]); err != nil {
			return nil, fmt.Errorf("failed to add column %s: %w", field, err)
		}
		columns[field] = last
	}
	return columns, nil
}

func commentFor(p *model.Product) string {
	if p.Status == model.StatusFailed {
		return FailedCommentPrefix + p.ErrorMessage
	}
	return p.Comment
}

func (w *Writer) writeMetadata(f *excelize.File, products []*model.Product) error {
	if idx, _ := f.GetSheetIndex(MetadataSheet); idx >= 0 {
		if err := f.DeleteSheet(MetadataSheet); err != nil {
			return fmt.Errorf("failed to replace metadata sheet: %w", err)
		}
	}
	if _, err := f.NewSheet(MetadataSheet); err != nil {
		return fmt.Errorf("failed to create metadata sheet: %w", err)
	}

	completed, rejected := 0, 0
	for _, p := range products {
		switch p.Status {
		case model.StatusCompleted:
			completed++
		case model.StatusRejected:
			rejected++
		}
	}

	rows := [][]any{
		{"Параметр", "Значение"},
		{"Дата обработки", w.now().Format("2006-01-02 15:04:05")},
		{"Количество продуктов", len(products)},
		{"Успешно нормализовано", completed},
		{"Отклонено", rejected},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(MetadataSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}
	return nil
}
