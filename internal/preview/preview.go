// Package preview renders a table for humans: a per-column schema and the
// first rows as a pipe table.
package preview

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/qtable-cli/internal/table"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NA is how missing cells are shown.
const NA = "NaN"

const maxCellWidth = 80

// Column summarizes one column.
type Column struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	NonNull int     `json:"non_null"`
	Missing int     `json:"missing"`
	Numeric bool    `json:"numeric"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Mean    float64 `json:"mean,omitempty"`
}

// MissingPct is the share of missing cells in percent.
func (c Column) MissingPct() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) * 100.0 / float64(total)
}

// Schema returns one Column per column of df, in order.
func Schema(df dataframe.DataFrame) []Column {
	names := df.Names()
	types := df.Types()
	cols := make([]Column, len(names))
	for i, name := range names {
		s := df.Col(name)
		c := Column{Name: name, Type: string(types[i]), Numeric: table.Numeric(types[i])}
		var vals []float64
		for r := 0; r < s.Len(); r++ {
			e := s.Elem(r)
			if table.IsMissing(e) {
				c.Missing++
				continue
			}
			c.NonNull++
			if c.Numeric {
				vals = append(vals, e.Float())
			}
		}
		if len(vals) > 0 {
			c.Min = floats.Min(vals)
			c.Max = floats.Max(vals)
			c.Mean = stat.Mean(vals, nil)
		}
		cols[i] = c
	}
	return cols
}

// Head returns the column names and up to n formatted rows.
func Head(df dataframe.DataFrame, n int) ([]string, [][]string) {
	if n < 0 {
		n = 0
	}
	if n > df.Nrow() {
		n = df.Nrow()
	}
	names := df.Names()
	rows := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(names))
		for c := range names {
			row[c] = table.FormatCell(df.Elem(r, c), NA)
		}
		rows[r] = row
	}
	return names, rows
}

// Markdown renders the table summary, schema and the first n rows.
func Markdown(df dataframe.DataFrame, n int) string {
	var b strings.Builder
	b.WriteString("[TABLE]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", df.Nrow()))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", df.Ncol()))
	b.WriteString(SchemaText(df))

	names, rows := Head(df, n)
	if len(names) == 0 || len(rows) == 0 {
		return b.String()
	}
	b.WriteString("\n[HEAD]\n")
	b.WriteString(Table(names, rows))
	return b.String()
}

// SchemaText renders the [SCHEMA] section alone.
func SchemaText(df dataframe.DataFrame) string {
	var b strings.Builder
	b.WriteString("[SCHEMA]\n")
	for _, c := range Schema(df) {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Type, c.NonNull, c.MissingPct()))
		if c.Numeric && c.NonNull > 0 {
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g", c.Min, c.Max, c.Mean))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Table renders names and rows as a pipe table.
func Table(names []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, n := range names {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(safeName(n)))
	}
	b.WriteString(" |\n| ")
	for i := range names {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range names {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			b.WriteString(safeVal(truncate(val, maxCellWidth)))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

// truncate shortens s to at most width characters, ending in "...".
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
