// Package export writes lookup results to spreadsheets.
package export

import (
	"fmt"
	"io"
	"os"

	"ares/internal/ares"
	"ares/internal/justice"

	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SheetCompanies = "Companies"
	SheetOfficers  = "Officers"
)

var (
	companyHeader = []string{"IČO", "DIČ", "Name", "Street", "House number", "Orientation number", "Town", "ZIP"}
	officerHeader = []string{"Name", "Role", "Birth date", "Address", "Since", "Share"}
)

// WriteRecords writes recs to w as an XLSX workbook with one Companies
// sheet. All cells are text so identifiers keep their leading zeros.
func WriteRecords(w io.Writer, recs []ares.Record) error {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.CompanyID,
			r.TaxID,
			r.CompanyName,
			r.Street,
			r.StreetHouseNumber,
			r.StreetOrientationNumber,
			r.Town,
			r.Zip,
		})
	}
	return writeSheet(w, SheetCompanies, companyHeader, rows)
}

// WriteOfficers writes the officers of one company to w.
func WriteOfficers(w io.Writer, set *justice.OfficerSet) error {
	all := set.All()
	rows := make([][]string, 0, len(all))
	for _, o := range all {
		rows = append(rows, []string{o.Name, string(o.Role), o.BirthDate, o.Address, o.Since, o.Share})
	}
	return writeSheet(w, SheetOfficers, officerHeader, rows)
}

// SaveFile creates path and hands it to write.
func SaveFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func writeSheet(w io.Writer, sheet string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 20); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("export: row %d: %w", row, err)
	}
	return nil
}
