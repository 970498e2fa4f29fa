// Package tabular decodes uploaded timetable spreadsheets into a plain
// header + rows document and encodes documents back to xlsx or csv.
package tabular

import (
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
)

// Format is a supported spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ContentType returns the MIME type used when serving the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ParseFormat accepts "xlsx" or "csv" (case-insensitive), defaulting to xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", common.ErrUnsupportedFormat
	}
}

// FormatOf derives the format from a file name's extension.
func FormatOf(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", common.ErrUnsupportedFormat
	}
}

// Document is a single sheet: the first row becomes Header, the rest Rows.
// Rows may be ragged.
type Document struct {
	Sheet  string     `json:"sheet"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Empty reports whether the document carries no cells at all.
func (d Document) Empty() bool {
	if len(d.Header) > 0 || len(d.Rows) > 0 {
		for _, c := range d.Header {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
		for _, r := range d.Rows {
			for _, c := range r {
				if strings.TrimSpace(c) != "" {
					return false
				}
			}
		}
	}
	return true
}

// Width is the widest row including the header.
func (d Document) Width() int {
	w := len(d.Header)
	for _, r := range d.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Text joins all non-empty cells with spaces.
func (d Document) Text() string {
	var b strings.Builder
	add := func(cells []string) {
		for _, c := range cells {
			if c = strings.TrimSpace(c); c == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(c)
		}
	}
	add(d.Header)
	for _, r := range d.Rows {
		add(r)
	}
	return b.String()
}

// Decode parses data according to fileName's extension.
func Decode(fileName string, data []byte) (Document, error) {
	format, err := FormatOf(fileName)
	if err != nil {
		return Document{}, err
	}

	var doc Document
	switch format {
	case FormatCSV:
		doc, err = DecodeCSV(data)
	default:
		doc, err = DecodeXLSX(data)
	}
	if err != nil {
		return Document{}, err
	}
	if doc.Empty() {
		return Document{}, common.ErrInvalidDocument
	}
	return doc, nil
}

// Encode writes doc in the requested format.
func Encode(doc Document, format Format) ([]byte, error) {
	if format == FormatCSV {
		return EncodeCSV(doc)
	}
	return EncodeXLSX(doc)
}

func split(records [][]string) ([]string, [][]string) {
	if len(records) == 0 {
		return nil, nil
	}
	rows := records[1:]
	if rows == nil {
		rows = [][]string{}
	}
	return records[0], rows
}
