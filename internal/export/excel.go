package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// column pairs a header title with a display width so every sheet in a
// workbook lays out consistently.
type column struct {
	title string
	width float64
}

func titles(cols []column) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = c.title
	}
	return out
}

// workbook wraps an excelize file with roomdesk's house style: bold
// shaded headers, fixed column widths, frozen header row.
type workbook struct {
	file        *excelize.File
	headerStyle int
	sheets      int
}

func newWorkbook() (*workbook, error) {
	file := excelize.NewFile()
	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	return &workbook{file: file, headerStyle: style}, nil
}

// addSheet creates a sheet with styled headers and returns an appender
// positioned on the first data row.
func (wb *workbook) addSheet(name string, cols []column) (*sheetAppender, error) {
	if wb.sheets == 0 {
		if err := wb.file.SetSheetName("Sheet1", name); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
	} else if _, err := wb.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("sheet %s: %w", name, err)
	}
	wb.sheets++

	for i, c := range cols {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := wb.file.SetColWidth(name, col, col, c.width); err != nil {
			return nil, err
		}
	}

	header := titles(cols)
	if err := wb.file.SetSheetRow(name, "A1", &header); err != nil {
		return nil, err
	}
	endCell, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return nil, err
	}
	if err := wb.file.SetCellStyle(name, "A1", endCell, wb.headerStyle); err != nil {
		return nil, err
	}
	if err := wb.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	return &sheetAppender{wb: wb, sheet: name, nextRow: 2}, nil
}

func (wb *workbook) save(w io.Writer) error {
	return wb.file.Write(w)
}

func (wb *workbook) close() error {
	return wb.file.Close()
}

// sheetAppender appends rows below the header of one sheet.
type sheetAppender struct {
	wb      *workbook
	sheet   string
	nextRow int
}

func (a *sheetAppender) append(values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, a.nextRow)
	if err != nil {
		return err
	}
	if err := a.wb.file.SetSheetRow(a.sheet, cell, &values); err != nil {
		return err
	}
	a.nextRow++
	return nil
}
