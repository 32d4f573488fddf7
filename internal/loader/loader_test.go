package loader

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/qtable-cli/internal/table"
	"github.com/go-gota/gota/series"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadCSVDetectsTypesAndMissing(t *testing.T) {
	p := writeFile(t, "sales.csv", "Region,Sales,Price,Active\n"+
		"East,100,1.5,true\n"+
		"West,,2.25,false\n"+
		"N/A,300,NaN,true\n")

	df, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := df.Names(); strings.Join(got, ",") != "Region,Sales,Price,Active" {
		t.Fatalf("names = %v", got)
	}
	if df.Nrow() != 3 {
		t.Fatalf("rows = %d, want 3", df.Nrow())
	}
	wantTypes := map[string]series.Type{
		"Region": series.String,
		"Sales":  series.Int,
		"Price":  series.Float,
		"Active": series.Bool,
	}
	for name, want := range wantTypes {
		if got := df.Col(name).Type(); got != want {
			t.Errorf("type of %s = %v, want %v", name, got, want)
		}
	}
	if !table.IsMissing(df.Col("Sales").Elem(1)) {
		t.Errorf("empty Sales cell should be missing")
	}
	if !table.IsMissing(df.Col("Region").Elem(2)) {
		t.Errorf("N/A Region cell should be missing")
	}
	if !table.IsMissing(df.Col("Price").Elem(2)) {
		t.Errorf("NaN Price cell should be missing")
	}
}

func TestLoadTSVAndShortRows(t *testing.T) {
	p := writeFile(t, "data.tsv", "a\tb\tc\n1\t2\t3\n4\t5\n")
	df, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if df.Ncol() != 3 || df.Nrow() != 2 {
		t.Fatalf("dims = %dx%d, want 2x3", df.Nrow(), df.Ncol())
	}
	if !table.IsMissing(df.Col("c").Elem(1)) {
		t.Fatalf("padded cell should be missing")
	}
}

func TestReadCSVMaxRowsAndDelimiter(t *testing.T) {
	in := "x;y\n1;a\n2;b\n3;c\n"
	df, err := ReadCSV(strings.NewReader(in), Options{Delimiter: ';', MaxRows: 2})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if df.Nrow() != 2 {
		t.Fatalf("rows = %d, want 2", df.Nrow())
	}
}

func TestReadCSVHeaderOnly(t *testing.T) {
	df, err := ReadCSV(strings.NewReader("a,b\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if df.Nrow() != 0 || df.Ncol() != 2 {
		t.Fatalf("dims = %dx%d, want 0x2", df.Nrow(), df.Ncol())
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader(""), DefaultOptions()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty input: err = %v, want ErrEmpty", err)
	}
	if _, err := ReadCSV(strings.NewReader("a,a\n1,2\n"), DefaultOptions()); err == nil {
		t.Fatalf("expected duplicate header error")
	}
}

func TestHeaderCleanup(t *testing.T) {
	df, err := ReadCSV(strings.NewReader("\ufeff id , ,name\n1,2,x\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	got := strings.Join(df.Names(), "|")
	if got != "id|Unnamed: 1|name" {
		t.Fatalf("names = %q", got)
	}
}

func TestLoadUnsupported(t *testing.T) {
	p := writeFile(t, "notes.txt", "hello")
	if _, err := Load(p, DefaultOptions()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	if Supported(p) {
		t.Fatalf("txt should not be supported")
	}
	if !Supported("a.XLSX") || !Supported("b.tsv") {
		t.Fatalf("xlsx and tsv should be supported")
	}
}

func TestEncodeCSVFormatsCells(t *testing.T) {
	df, err := ReadCSV(strings.NewReader("name,score\nann,1.5\nbob,\ncid,2\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	b, err := EncodeCSV(df)
	if err != nil {
		t.Fatalf("EncodeCSV: %v", err)
	}
	want := "name,score\nann,1.5\nbob,\ncid,2\n"
	if string(b) != want {
		t.Fatalf("csv = %q, want %q", string(b), want)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	df, err := ReadCSV(strings.NewReader("k,v\na,1\nb,2\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	out := filepath.Join(t.TempDir(), "nested", "out.csv")
	if err := WriteCSV(df, out); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	back, err := Load(out, DefaultOptions())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Nrow() != 2 || back.Col("v").Type() != series.Int {
		t.Fatalf("round trip mismatch: %v", back)
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"", 0},
		{",", ','},
		{"tab", '\t'},
		{"Semicolon", ';'},
		{"pipe", '|'},
	}
	for _, tt := range tests {
		got, err := ParseDelimiter(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseDelimiter(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseDelimiter("x"); err == nil {
		t.Errorf("expected error for unsupported delimiter")
	}
}

func TestLoadXLSXBySheetNameAndIndex(t *testing.T) {
	p := writeXLSX(t)

	opt := DefaultOptions()
	opt.SheetName = "data"
	df, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load by name: %v", err)
	}
	if strings.Join(df.Names(), ",") != "Region,Sales,Flag" {
		t.Fatalf("names = %v", df.Names())
	}
	if df.Nrow() != 2 {
		t.Fatalf("rows = %d, want 2", df.Nrow())
	}
	if df.Col("Sales").Type() != series.Int {
		t.Fatalf("Sales type = %v, want int", df.Col("Sales").Type())
	}
	if got := df.Col("Region").Elem(1).String(); got != "West" {
		t.Fatalf("Region[1] = %q, want West", got)
	}
	if df.Col("Flag").Type() != series.Bool {
		t.Fatalf("Flag type = %v, want bool", df.Col("Flag").Type())
	}
	if !table.IsMissing(df.Col("Flag").Elem(1)) {
		t.Fatalf("absent Flag cell should be missing")
	}

	opt = DefaultOptions()
	opt.SheetIndex = 2
	byIndex, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load by index: %v", err)
	}
	if byIndex.Nrow() != 2 {
		t.Fatalf("rows by index = %d", byIndex.Nrow())
	}

	opt = DefaultOptions()
	opt.SheetName = "missing"
	if _, err := Load(p, opt); err == nil || !strings.Contains(err.Error(), "Data") {
		t.Fatalf("expected sheet-not-found error listing sheets, got %v", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	for ref, want := range map[string]int{"A1": 0, "C12": 2, "Z3": 25, "AA1": 26} {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}

// writeXLSX builds a two-sheet workbook. "Notes" is sheetId 1, "Data" is sheetId 2
// and is referenced through an absolute relationship target.
func writeXLSX(t *testing.T) string {
	t.Helper()
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>Region</t></si><si><t>Sales</t></si><si><t>East</t></si><si><r><t>We</t></r><r><t>st</t></r></si><si><t>Flag</t></si>
</sst>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>note</t></is></c></row>
</sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>4</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>100</v></c><c r="C2" t="b"><v>1</v></c></row>
<row r="3"><c r="A3" t="s"><v>3</v></c><c r="B3"><v>250</v></c></row>
</sheetData></worksheet>`,
	}
	p := filepath.Join(t.TempDir(), "sales.xlsx")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return p
}
