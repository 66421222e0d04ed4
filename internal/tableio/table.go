package tableio

import (
	"strings"
)

// Table is a header row plus data rows, the shape every spreadsheet file is
// reduced to before parsing. Cells read from files are strings; cells built
// for writing may hold numbers.
type Table struct {
	Header []string
	Rows   [][]any
}

// Cell returns the trimmed string form of row r, column c, or "" when the
// row is shorter than c.
func (t *Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) {
		return ""
	}
	row := t.Rows[r]
	if c < 0 || c >= len(row) || row[c] == nil {
		return ""
	}
	switch v := row[c].(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(formatCell(v))
	}
}

// ColumnIndex returns the index of the first header matching any of names
// after normalization, or -1.
func (t *Table) ColumnIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.Header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// isBlankRow reports whether every cell of the row is empty.
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
