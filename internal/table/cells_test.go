package table

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

func TestIsMissing(t *testing.T) {
	s := series.New([]string{"a", " ", "NaN"}, series.String, "s")
	f := series.New([]float64{1.5, math.NaN()}, series.Float, "f")
	cases := []struct {
		e    series.Element
		want bool
	}{
		{s.Elem(0), false},
		{s.Elem(1), true},
		{s.Elem(2), true},
		{f.Elem(0), false},
		{f.Elem(1), true},
	}
	for i, c := range cases {
		if got := IsMissing(c.e); got != c.want {
			t.Errorf("case %d: IsMissing = %v, want %v", i, got, c.want)
		}
	}
}

func TestFormatCellAndRecords(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"East", ""}, series.String, "Region"),
		series.New([]float64{2.5, 10}, series.Float, "Price"),
	)
	recs := Records(df, "NA")
	want := [][]string{{"Region", "Price"}, {"East", "2.5"}, {"NA", "10"}}
	if len(recs) != len(want) {
		t.Fatalf("records = %v", recs)
	}
	for i := range want {
		for j := range want[i] {
			if recs[i][j] != want[i][j] {
				t.Errorf("records[%d][%d] = %q, want %q", i, j, recs[i][j], want[i][j])
			}
		}
	}
}

func TestRowKeyAndHasMissing(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"a", "a", "a,b", ""}, series.String, "x"),
		series.New([]string{"b,c", "b,c", "c", ""}, series.String, "y"),
	)
	if RowKey(df, 0) != RowKey(df, 1) {
		t.Errorf("identical rows should share a key")
	}
	if RowKey(df, 0) == RowKey(df, 2) {
		t.Errorf("rows differing by separator placement must not collide")
	}
	if HasMissing(df, 0) || !HasMissing(df, 3) {
		t.Errorf("HasMissing mismatch")
	}
	if !Numeric(series.Int) || !Numeric(series.Float) || Numeric(series.String) {
		t.Errorf("Numeric mismatch")
	}
}
