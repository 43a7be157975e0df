package exports

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus data rows of already formatted cells.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
}

// WriteCSV writes t with every field double-quoted and embedded quotes
// doubled, one "\n" terminated line per row.
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	if err := writeCSVLine(bw, t.Headers); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writeCSVLine(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSVLine(w *bufio.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	_, err := w.WriteString(strings.Join(quoted, ",") + "\n")
	return err
}

// WriteXLSX writes t as a single-sheet workbook with a bold header row.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Export"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = excelize.Cell{Value: h, StyleID: headerStyle}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}
