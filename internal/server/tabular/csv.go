package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/dmitrijs2005/studymate/internal/common"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV parses comma separated data. A leading UTF-8 BOM is dropped and
// rows may have differing lengths.
func DecodeCSV(data []byte) (Document, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}

	header, rows := split(records)
	return Document{Header: header, Rows: rows}, nil
}

// EncodeCSV writes the header followed by the rows.
func EncodeCSV(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(doc.Header) > 0 {
		if err := w.Write(doc.Header); err != nil {
			return nil, err
		}
	}
	if err := w.WriteAll(doc.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
