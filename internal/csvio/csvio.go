// Package csvio parses the delimited text served by the dashboard's data
// endpoints. The source files are hand-maintained, so the parser is
// deliberately lenient: RFC4180-style quoting is honored where present,
// but malformed quoting, blank lines, and ragged rows all degrade
// gracefully instead of failing the ingest.
package csvio

import "strings"

// Table is parsed CSV content: one header row plus zero or more data rows.
// The first non-blank line is always the header; every later line is a data
// row regardless of column-count mismatches.
type Table struct {
	Header []string
	Rows   [][]string
}

// Parse splits raw text into a Table. It never returns an error: an
// unterminated quote closes at line end, and a fully blank line is dropped
// rather than treated as data.
func Parse(raw string) Table {
	var lines []string
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	t := Table{}
	if len(lines) == 0 {
		return t
	}
	t.Header = splitFields(lines[0])
	for _, line := range lines[1:] {
		t.Rows = append(t.Rows, splitFields(line))
	}
	return t
}

// splitFields splits one line on commas with RFC4180-style quoting: a
// quoted field may contain commas, a doubled quote unescapes to a literal
// quote, and quote state toggles on every unescaped quote character.
// Fields are trimmed of surrounding whitespace after parsing.
func splitFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// Column returns the index of the header cell exactly matching name, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ColumnFold returns the index of the header cell matching name
// case-insensitively after trimming, or -1. Used for the "Month" column.
func (t Table) ColumnFold(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Field returns row[idx], or "" when idx is negative or past the end of a
// short row. Downstream numeric coercion turns "" into 0.
func Field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
