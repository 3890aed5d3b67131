// Package spreadsheet reads and writes product sheets as xlsx or csv.
package spreadsheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Format is a supported spreadsheet file type
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Columns is the header row of import and export sheets
var Columns = []string{
	"barCode", "name", "itemDesc", "price", "categoryId",
	"colorId", "sizeId", "uomId", "isFeatured", "isArchived",
}

var requiredColumns = []string{"barCode", "name", "price", "categoryId", "colorId", "sizeId", "uomId"}

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format, use .xlsx or .csv")
	ErrNoRows            = errors.New("spreadsheet has no data rows")
)

// ParseFormat accepts "xlsx" or "csv" in any case; empty means xlsx
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// FormatFromFilename picks the format from an uploaded file's extension
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", ErrUnsupportedFormat
	}
	return ParseFormat(ext)
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Row is one parsed product line; Line is the 1-based sheet row, header included
type Row struct {
	Line       int
	BarCode    string
	Name       string
	ItemDesc   string
	Price      decimal.Decimal
	CategoryID uuid.UUID
	ColorID    uuid.UUID
	SizeID     uuid.UUID
	UoMID      *uuid.UUID
	IsFeatured bool
	IsArchived bool
}

// CellError reports an unusable cell
type CellError struct {
	Line    int    `json:"line"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

func (e CellError) Error() string {
	return fmt.Sprintf("row %d, %s: %s", e.Line, e.Column, e.Message)
}

// CellErrors collects every problem of a sheet so they can be fixed in one pass
type CellErrors []CellError

func (e CellErrors) Error() string {
	const shown = 5
	parts := make([]string, 0, shown)
	for i, ce := range e {
		if i == shown {
			parts = append(parts, fmt.Sprintf("and %d more", len(e)-shown))
			break
		}
		parts = append(parts, ce.Error())
	}
	return strings.Join(parts, "; ")
}

// sheetRow is the raw cells of one sheet line
type sheetRow struct {
	line  int
	cells []string
}

// parseRecords turns a header row plus data rows into product rows
func parseRecords(records []sheetRow) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	index := make(map[string]int)
	for i, h := range records[0].cells {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[strings.ToLower(c)]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []Row
	var errs CellErrors
	for _, sr := range records[1:] {
		line, record := sr.line, sr.cells
		cell := func(column string) string {
			pos, ok := index[strings.ToLower(column)]
			if !ok || pos >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[pos])
		}
		if blank(record) {
			continue
		}

		row := Row{
			Line:     line,
			BarCode:  cell("barCode"),
			Name:     cell("name"),
			ItemDesc: cell("itemDesc"),
		}
		fail := func(column, msg string) {
			errs = append(errs, CellError{Line: line, Column: column, Message: msg})
		}

		if row.BarCode == "" {
			fail("barCode", "is required")
		}
		if row.Name == "" {
			fail("name", "is required")
		}
		if price, err := decimal.NewFromString(cell("price")); err != nil {
			fail("price", "must be a number")
		} else {
			row.Price = price
		}

		for column, dst := range map[string]*uuid.UUID{
			"categoryId": &row.CategoryID,
			"colorId":    &row.ColorID,
			"sizeId":     &row.SizeID,
		} {
			id, err := uuid.Parse(cell(column))
			if err != nil {
				fail(column, "must be an id")
				continue
			}
			*dst = id
		}

		// bulk created products always carry a unit of measure
		if raw := cell("uomId"); raw == "" {
			fail("uomId", "is required")
		} else if id, err := uuid.Parse(raw); err != nil {
			fail("uomId", "must be an id")
		} else {
			row.UoMID = &id
		}

		var err error
		if row.IsFeatured, err = parseBool(cell("isFeatured")); err != nil {
			fail("isFeatured", "must be true or false")
		}
		if row.IsArchived, err = parseBool(cell("isArchived")); err != nil {
			fail("isArchived", "must be true or false")
		}

		rows = append(rows, row)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "":
		return false, nil
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}
