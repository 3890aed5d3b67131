package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"backoffice/internal/domain"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Products"

// Read parses the first sheet of an xlsx workbook or a csv file
func Read(format Format, r io.Reader) ([]Row, error) {
	var records []sheetRow
	var err error

	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return parseRecords(records)
}

func readXLSX(r io.Reader) ([]sheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	// GetRows keeps empty rows between filled ones, so the index is the sheet row
	out := make([]sheetRow, len(rows))
	for i, cells := range rows {
		out[i] = sheetRow{line: i + 1, cells: cells}
	}
	return out, nil
}

// readCSV keeps the file line of every record; the csv reader skips empty lines
func readCSV(r io.Reader) ([]sheetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []sheetRow
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		out = append(out, sheetRow{line: line, cells: cells})
	}
}

// Write renders products with the import header so an export can be edited and re-imported
func Write(format Format, w io.Writer, products []*domain.Product) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, products)
	case FormatCSV:
		return writeCSV(w, products)
	default:
		return ErrUnsupportedFormat
	}
}

func record(p *domain.Product) []string {
	uom := ""
	if p.UoMID != nil {
		uom = p.UoMID.String()
	}
	return []string{
		p.BarCode,
		p.Name,
		p.ItemDesc,
		p.Price.StringFixed(2),
		p.CategoryID.String(),
		p.ColorID.String(),
		p.SizeID.String(),
		uom,
		strconv.FormatBool(p.IsFeatured),
		strconv.FormatBool(p.IsArchived),
	}
}

func writeCSV(w io.Writer, products []*domain.Product) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, p := range products {
		if err := writer.Write(record(p)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeXLSX(w io.Writer, products []*domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := record(p)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "C", 24); err != nil {
		return err
	}
	return f.Write(w)
}
