package query

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/qtable-cli/internal/expr"
	"github.com/KaramelBytes/qtable-cli/internal/table"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// subset selects rows by index list or mask. A table without columns has no
// rows to select and comes back unchanged.
func subset(df dataframe.DataFrame, rows interface{}) dataframe.DataFrame {
	if df.Ncol() == 0 {
		return df
	}
	return df.Subset(rows)
}

func applyDropMissing(_ *Transformer, df dataframe.DataFrame, _ request) (dataframe.DataFrame, string, error) {
	keep := make([]int, 0, df.Nrow())
	for r := 0; r < df.Nrow(); r++ {
		if !table.HasMissing(df, r) {
			keep = append(keep, r)
		}
	}
	out := subset(df, keep)
	if out.Err != nil {
		return df, "", fail(out.Err, msgProcessingErr, out.Err)
	}
	return out, msgMissing, nil
}

func applyDedupe(_ *Transformer, df dataframe.DataFrame, _ request) (dataframe.DataFrame, string, error) {
	seen := make(map[string]struct{}, df.Nrow())
	keep := make([]int, 0, df.Nrow())
	for r := 0; r < df.Nrow(); r++ {
		k := table.RowKey(df, r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, r)
	}
	out := subset(df, keep)
	if out.Err != nil {
		return df, "", fail(out.Err, msgProcessingErr, out.Err)
	}
	return out, msgDuplicates, nil
}

func applyFilter(_ *Transformer, df dataframe.DataFrame, req request) (dataframe.DataFrame, string, error) {
	cond := req.after("filter")
	names := df.Names()
	prog, err := expr.Compile(cond, df, func(ref string) (string, error) {
		return resolveColumn(names, ref)
	})
	if err != nil {
		return df, "", fail(err, "Error filtering data: %v", err)
	}
	mask, err := prog.Mask(df)
	if err != nil {
		return df, "", fail(err, "Error filtering data: %v", err)
	}
	out := subset(df, mask)
	if out.Err != nil {
		return df, "", fail(out.Err, "Error filtering data: %v", out.Err)
	}
	return out, fmt.Sprintf("Data filtered with condition: %s", strings.ToLower(cond)), nil
}

func applyRename(_ *Transformer, df dataframe.DataFrame, req request) (dataframe.DataFrame, string, error) {
	oldRef, newName, ok := splitWord(req.after("rename"), "to")
	oldRef, newName = unquote(oldRef), unquote(newName)
	if !ok || oldRef == "" || newName == "" {
		detail := "expected '<old> to <new>'"
		return df, "", fail(&MalformedOperandError{Op: "rename", Detail: detail}, msgRenameFormat)
	}
	names := df.Names()
	old, err := resolveColumn(names, oldRef)
	if err != nil {
		var unknown *UnknownColumnError
		if errors.As(err, &unknown) {
			return df, "", fail(err, "Column '%s' not found in the dataset.", oldRef)
		}
		return df, "", fail(err, "Error renaming column: %v", err)
	}
	for _, n := range names {
		if n == newName && n != old {
			err := &MalformedOperandError{Op: "rename", Detail: fmt.Sprintf("column '%s' already exists", newName)}
			return df, "", fail(err, "Error renaming column: %v", err)
		}
	}
	out := df.Rename(newName, old)
	if out.Err != nil {
		return df, "", fail(out.Err, "Error renaming column: %v", out.Err)
	}
	return out, fmt.Sprintf("Column '%s' renamed to '%s'.", old, newName), nil
}

func applySort(_ *Transformer, df dataframe.DataFrame, req request) (dataframe.DataFrame, string, error) {
	full := req.after("sort")
	stripped := trimTrailingWords(trimLeadingWord(full, "by"), "ascending", "descending")
	if stripped == "" {
		err := &MalformedOperandError{Op: "sort", Detail: "no column given"}
		return df, "", fail(err, "Error sorting data: %v", err)
	}
	col, err := resolveFirst(df.Names(), full, stripped)
	if err != nil {
		return df, "", fail(err, "Error sorting data: %v", err)
	}
	desc := strings.Contains(req.lower, "descending")

	out := subset(df, sortOrder(df.Col(col), desc))
	if out.Err != nil {
		return df, "", fail(out.Err, "Error sorting data: %v", out.Err)
	}
	dir := "ascending"
	if desc {
		dir = "descending"
	}
	return out, fmt.Sprintf("Data sorted by '%s' in %s order.", col, dir), nil
}

// sortOrder returns row indexes ordering s stably. Missing cells go last in
// their original order regardless of direction.
func sortOrder(s series.Series, desc bool) []int {
	idx := make([]int, 0, s.Len())
	var missing []int
	for i := 0; i < s.Len(); i++ {
		if table.IsMissing(s.Elem(i)) {
			missing = append(missing, i)
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := s.Elem(idx[a]), s.Elem(idx[b])
		if desc {
			return eb.Less(ea)
		}
		return ea.Less(eb)
	})
	return append(idx, missing...)
}

type aggFunc string

const (
	aggSum  aggFunc = "sum"
	aggMean aggFunc = "mean"
)

func applyAggregate(_ *Transformer, df dataframe.DataFrame, req request) (dataframe.DataFrame, string, error) {
	var fn aggFunc
	switch {
	case strings.Contains(req.lower, "sum"):
		fn = aggSum
	case strings.Contains(req.lower, "mean"):
		fn = aggMean
	default:
		return df, "", errNotApplicable
	}

	full := req.after("aggregate")
	stripped := trimTrailingWords(trimLeadingWord(full, "by"), "with sum", "with mean", "sum", "mean")
	if stripped == "" {
		err := &MalformedOperandError{Op: "aggregate", Detail: "no grouping column given"}
		return df, "", fail(err, "Error aggregating data: %v", err)
	}
	col, err := resolveFirst(df.Names(), full, stripped)
	if err != nil {
		return df, "", fail(err, "Error aggregating data: %v", err)
	}

	out, err := groupBy(df, col, fn)
	if err != nil {
		return df, "", fail(err, "Error aggregating data: %v", err)
	}
	return out, fmt.Sprintf("Data aggregated by '%s' with %s.", col, fn), nil
}

// groupBy returns one row per distinct non-missing value of key, ordered by
// that value, with every other numeric column reduced by fn.
// Non-numeric columns are dropped.
func groupBy(df dataframe.DataFrame, key string, fn aggFunc) (dataframe.DataFrame, error) {
	keys := df.Col(key)
	if keys.Err != nil {
		return df, keys.Err
	}

	groupOf := make([]int, keys.Len())
	var firstRow []int
	index := map[string]int{}
	for r := 0; r < keys.Len(); r++ {
		e := keys.Elem(r)
		if table.IsMissing(e) {
			groupOf[r] = -1
			continue
		}
		k := table.FormatCell(e, "")
		g, ok := index[k]
		if !ok {
			g = len(firstRow)
			index[k] = g
			firstRow = append(firstRow, r)
		}
		groupOf[r] = g
	}

	order := make([]int, len(firstRow))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys.Elem(firstRow[order[a]]).Less(keys.Elem(firstRow[order[b]]))
	})
	reps := make([]int, len(order))
	for i, g := range order {
		reps[i] = firstRow[g]
	}

	cols := []series.Series{keys.Subset(reps)}
	for _, name := range df.Names() {
		if name == key {
			continue
		}
		s := df.Col(name)
		if !table.Numeric(s.Type()) {
			continue
		}
		cols = append(cols, reduce(s, groupOf, order, fn))
	}
	out := dataframe.New(cols...)
	if out.Err != nil {
		return df, out.Err
	}
	return out, nil
}

// reduce folds s per group. Groups are emitted in the given order.
func reduce(s series.Series, groupOf, order []int, fn aggFunc) series.Series {
	n := len(order)
	sums := make([]float64, n)
	isums := make([]int, n)
	counts := make([]int, n)
	pos := make([]int, n)
	for i, g := range order {
		pos[g] = i
	}
	for r := 0; r < s.Len(); r++ {
		g := groupOf[r]
		e := s.Elem(r)
		if g < 0 || e.IsNA() {
			continue
		}
		p := pos[g]
		counts[p]++
		sums[p] += e.Float()
		if s.Type() == series.Int {
			v, err := e.Int()
			if err == nil {
				isums[p] += v
			}
		}
	}

	if fn == aggSum {
		if s.Type() == series.Int {
			return series.New(isums, series.Int, s.Name)
		}
		return series.New(sums, series.Float, s.Name)
	}
	means := make([]float64, n)
	for i := range means {
		if counts[i] == 0 {
			means[i] = math.NaN()
			continue
		}
		means[i] = sums[i] / float64(counts[i])
	}
	return series.New(means, series.Float, s.Name)
}
