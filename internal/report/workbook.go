// Package report renders inventory and sales spreadsheets and reads product
// sheets for bulk import.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the workbooks produced by this package.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheet wraps one worksheet being written top to bottom.
type sheet struct {
	f      *excelize.File
	name   string
	next   int
	styles map[string]int
}

func newSheet(name string) (*sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	s := &sheet{f: f, name: name, next: 1, styles: map[string]int{}}

	defs := map[string]*excelize.Style{
		"title": {
			Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"001F3F"}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		},
		"header": {
			Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"3498DB"}},
			Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
		},
		"total": {
			Font: &excelize.Font{Bold: true, Size: 12, Color: "1E8449"},
		},
	}
	for key, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create %s style: %w", key, err)
		}
		s.styles[key] = id
	}
	return s, nil
}

// title writes a merged, styled banner across width columns.
func (s *sheet) title(text string, width int) error {
	first, _ := excelize.CoordinatesToCellName(1, s.next)
	last, _ := excelize.CoordinatesToCellName(width, s.next)
	if err := s.f.MergeCell(s.name, first, last); err != nil {
		return err
	}
	if err := s.f.SetCellValue(s.name, first, text); err != nil {
		return err
	}
	if err := s.f.SetCellStyle(s.name, first, last, s.styles["title"]); err != nil {
		return err
	}
	s.next++
	return nil
}

// row writes values starting at column A and returns the row number used.
func (s *sheet) row(values ...any) (int, error) {
	n := s.next
	cell, _ := excelize.CoordinatesToCellName(1, n)
	if err := s.f.SetSheetRow(s.name, cell, &values); err != nil {
		return 0, err
	}
	s.next++
	return n, nil
}

func (s *sheet) styledRow(style string, values ...any) error {
	n, err := s.row(values...)
	if err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, n)
	last, _ := excelize.CoordinatesToCellName(len(values), n)
	return s.f.SetCellStyle(s.name, first, last, s.styles[style])
}

func (s *sheet) blank() { s.next++ }

func (s *sheet) widths(widths ...float64) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := s.f.SetColWidth(s.name, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// WriteTo writes the workbook to w and releases it.
func (s *sheet) WriteTo(w io.Writer) (int64, error) {
	defer s.f.Close()
	return s.f.WriteTo(w)
}

// Workbook is a rendered spreadsheet ready to be written once.
type Workbook interface {
	WriteTo(w io.Writer) (int64, error)
}
