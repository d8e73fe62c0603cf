package sheets

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
)

const (
	headerScanRows       = 20
	minKnownHeaders      = 3
	minNonEmptyHeaderRow = 5
)

// Column is one header cell of the data sheet.
type Column struct {
	Header string
	Field  string
	Index  int // 1-based
}

// Document is a parsed input workbook.
type Document struct {
	Path      string
	Sheet     string
	Columns   []Column
	Products  []*model.Product
	HeaderRow int // 1-based
}

// Column returns the 1-based index of the column mapped to field, or 0.
func (d *Document) Column(field string) int {
	for _, c := range d.Columns {
		if c.Field == field {
			return c.Index
		}
	}
	return 0
}

// Reader parses procurement workbooks.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: common.LoggerOrDefault(logger)}
}

// ReadFile parses the main sheet of the workbook at path.
func (r *Reader) ReadFile(path string) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrInputFile, path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := r.read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path

	r.logger.Info("parsed workbook",
		"file", path,
		"sheet", doc.Sheet,
		"header_row", doc.HeaderRow,
		"products", len(doc.Products))
	return doc, nil
}

func (r *Reader) read(f *excelize.File) (*Document, error) {
	sheet, err := mainSheet(f.GetSheetList())
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", common.ErrInputFile, sheet, err)
	}

	headerIdx := findHeaderRow(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: sheet %q", common.ErrHeaderNotFound, sheet)
	}

	doc := &Document{Sheet: sheet, HeaderRow: headerIdx + 1}
	for i, cell := range rows[headerIdx] {
		header := strings.TrimSpace(cell)
		if header == "" {
			continue
		}
		doc.Columns = append(doc.Columns, Column{Header: header, Field: fieldFor(header), Index: i + 1})
	}

	skipped := 0
	for i := headerIdx + 1; i < len(rows); i++ {
		product := extractProduct(rows[i], doc.Columns, i+1)
		if product == nil {
			skipped++
			continue
		}
		doc.Products = append(doc.Products, product)
	}
	if skipped > 0 {
		r.logger.Debug("skipped incomplete rows", "sheet", sheet, "rows", skipped)
	}
	return doc, nil
}

func mainSheet(sheets []string) (string, error) {
	if len(sheets) == 0 {
		return "", common.ErrNoSheets
	}
	for _, name := range sheets {
		lower := strings.ToLower(name)
		for _, pattern := range mainSheetPatterns {
			if strings.Contains(lower, pattern) {
				return name, nil
			}
		}
	}
	return sheets[0], nil
}

// findHeaderRow returns the 0-based index of the first of the leading rows
// with enough known headers or non-empty cells, or -1.
func findHeaderRow(rows [][]string) int {
	for i := range min(headerScanRows, len(rows)) {
		known, nonEmpty := 0, 0
		for _, cell := range rows[i] {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			nonEmpty++
			if isKnownHeader(cell) {
				known++
			}
		}
		if known >= minKnownHeaders || nonEmpty >= minNonEmptyHeaderRow {
			return i
		}
	}
	return -1
}

func extractProduct(row []string, columns []Column, excelRow int) *model.Product {
	values := make(map[string]string, len(columns))
	for _, c := range columns {
		if c.Index > len(row) {
			continue
		}
		if v := strings.TrimSpace(row[c.Index-1]); v != "" {
			values[c.Field] = v
		}
	}

	for _, field := range requiredFields {
		if values[field] == "" {
			return nil
		}
	}

	p := model.NewProduct(values[FieldInternalCode], values[FieldOriginalName], values[FieldOriginalUnit], values[FieldCategoryName])
	p.Row = excelRow
	p.NormalizedUnit = values[FieldNormalizedUnit]
	p.OKPD2Code = values[FieldOKPD2Code]
	p.Comment = values[FieldComment]
	for field, v := range values {
		if !isCoreField(field) {
			p.SetSpecification(field, v)
		}
	}
	return p
}
