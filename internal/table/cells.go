// Package table holds cell-level helpers shared by every package that reads
// or renders a DataFrame.
package table

import (
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// IsMissing reports whether a cell counts as missing: gota NA or a blank string.
func IsMissing(e series.Element) bool {
	if e.IsNA() {
		return true
	}
	return e.Type() == series.String && strings.TrimSpace(e.String()) == ""
}

// FormatCell renders one element the way it was most likely written in the
// source file: floats without trailing zeros, missing cells as na.
func FormatCell(e series.Element, na string) string {
	if IsMissing(e) {
		return na
	}
	if e.Type() == series.Float {
		return strconv.FormatFloat(e.Float(), 'f', -1, 64)
	}
	return e.String()
}

// Records returns the header followed by every row, formatted with FormatCell.
func Records(df dataframe.DataFrame, na string) [][]string {
	names := df.Names()
	out := make([][]string, 0, df.Nrow()+1)
	out = append(out, names)
	for r := 0; r < df.Nrow(); r++ {
		row := make([]string, len(names))
		for c := range names {
			row[c] = FormatCell(df.Elem(r, c), na)
		}
		out = append(out, row)
	}
	return out
}

// RowKey identifies a row by its cell values. Missing cells compare equal to
// each other and to nothing else.
func RowKey(df dataframe.DataFrame, r int) string {
	var sb strings.Builder
	for c := 0; c < df.Ncol(); c++ {
		e := df.Elem(r, c)
		if IsMissing(e) {
			sb.WriteString("\x00")
		} else {
			sb.WriteString(strconv.Quote(FormatCell(e, "")))
		}
		sb.WriteByte(',')
	}
	return sb.String()
}

// HasMissing reports whether any cell of row r is missing.
func HasMissing(df dataframe.DataFrame, r int) bool {
	for c := 0; c < df.Ncol(); c++ {
		if IsMissing(df.Elem(r, c)) {
			return true
		}
	}
	return false
}

// Numeric reports whether a column holds Int or Float values.
func Numeric(t series.Type) bool {
	return t == series.Int || t == series.Float
}
