package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// DecodeXLSX reads the first sheet of an xlsx/xlsm workbook.
func DecodeXLSX(data []byte) (Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Document{}, common.ErrInvalidDocument
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}

	header, rows := split(records)
	return Document{Sheet: sheets[0], Header: header, Rows: rows}, nil
}

// EncodeXLSX writes doc as a single-sheet workbook with a bold header row.
func EncodeXLSX(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(doc.Sheet)
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, sheet, 1, doc.Header); err != nil {
		return nil, err
	}
	for i, r := range doc.Rows {
		if err := writeRow(f, sheet, i+2, r); err != nil {
			return nil, err
		}
	}

	if w := len(doc.Header); w > 0 {
		last, err := excelize.CoordinatesToCellName(w, 1)
		if err != nil {
			return nil, err
		}
		if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
			_ = f.SetCellStyle(sheet, "A1", last, style)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// sheetName trims a name to what Excel accepts (31 chars, no []:*?/\).
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	if s == "" {
		return defaultSheet
	}
	return s
}
