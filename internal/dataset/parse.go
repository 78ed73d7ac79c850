package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// byteOrderMark is the UTF-8 encoding of U+FEFF, common in spreadsheet exports.
var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Parse interprets data as a comma-separated table whose first record is the
// header. An empty input, or one holding only a header, yields an empty table.
//
// Header names are normalized with [NormalizeColumnName] before any row is
// built. Every row carries every header column: cells missing from a short
// record read as "" and cells beyond the header are dropped.
func Parse(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(sanitizeUTF8(data), byteOrderMark)
	if len(bytes.TrimSpace(data)) == 0 {
		return &Table{}, nil
	}

	if bytes.IndexByte(data, 0) >= 0 {
		return nil, errors.New("parse csv: source contains binary data")
	}

	records, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = NormalizeColumnName(name)
	}

	table := &Table{
		Columns: header,
		Rows:    make([]Row, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := newRow(len(header))
		for i, col := range header {
			value := ""
			if i < len(rec) {
				value = rec[i]
			}
			row.Set(col, value)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// NormalizeColumnName removes byte-order-mark characters and surrounding
// whitespace from a header name.
func NormalizeColumnName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "\ufeff", ""))
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
		} else {
			buf.Write(data[:size])
		}
		data = data[size:]
	}
	return buf.Bytes()
}

func isEmptyRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
