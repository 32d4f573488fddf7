// Package loader turns uploaded tabular files (CSV, TSV, XLSX) into DataFrames
// and writes DataFrames back to disk.
package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Options controls how a file is read into a table.
type Options struct {
	// Delimiter for CSV. If 0, it is chosen from the file extension.
	Delimiter rune
	// SheetName selects an XLSX sheet by name (case-insensitive).
	SheetName string
	// SheetIndex is the 1-based XLSX sheet used when SheetName is empty.
	SheetIndex int
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Loader reads one file format.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (dataframe.DataFrame, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no registered loader accepts the file.
var ErrUnsupported = errors.New("unsupported table format")

// ErrEmpty indicates the file has no header row.
var ErrEmpty = errors.New("empty file")

// Load selects a loader based on the filename and returns the parsed table.
func Load(path string, opt Options) (dataframe.DataFrame, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return dataframe.DataFrame{}, fmt.Errorf("%w: %s (use .csv, .tsv or .xlsx)", ErrUnsupported, path)
}

// Supported reports whether a loader is registered for the filename.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// missingTokens are cell values read as missing regardless of column type.
var missingTokens = map[string]struct{}{
	"":      {},
	"na":    {},
	"n/a":   {},
	"nan":   {},
	"null":  {},
	"<nil>": {},
}

// naMarker is the literal gota stores as a missing element.
const naMarker = "NaN"

// FromRecords builds a table from a header row followed by data rows.
// Short rows are padded, missing tokens are normalized, and column types are
// detected from the data.
func FromRecords(records [][]string, opt Options) (dataframe.DataFrame, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return dataframe.DataFrame{}, ErrEmpty
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = h
	}
	if dup := firstDuplicate(header); dup != "" {
		return dataframe.DataFrame{}, fmt.Errorf("duplicate column name in header: %q", dup)
	}
	ncol := len(header)
	rows := records[1:]
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
	}

	out := make([][]string, 0, len(rows)+1)
	out = append(out, header)
	for _, rec := range rows {
		norm := make([]string, ncol)
		copy(norm, rec)
		for j := range norm {
			v := strings.TrimSpace(norm[j])
			if _, ok := missingTokens[strings.ToLower(v)]; ok {
				v = naMarker
			}
			norm[j] = v
		}
		out = append(out, norm)
	}

	if len(rows) == 0 {
		cols := make([]series.Series, ncol)
		for i, h := range header {
			cols[i] = series.New([]string{}, series.String, h)
		}
		return dataframe.New(cols...), nil
	}

	df := dataframe.LoadRecords(out, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("build table: %w", df.Err)
	}
	return df, nil
}

func firstDuplicate(names []string) string {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n
		}
		seen[n] = struct{}{}
	}
	return ""
}
