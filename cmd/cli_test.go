package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/qtable-cli/internal/loader"
)

const salesCSV = "Region,Sales\nEast,300\nWest,\nEast,300\nNorth,50\n"

// execCmd resets flag-bound variables, runs the root command with args and
// returns what it printed to stdout.
func execCmd(args ...string) (string, error) {
	cfgFile, debug, flagLogFormat = "", false, ""
	applyQueries, applyOutput, applyRows = nil, "", -1
	applyDelimiter, applySheet, applySheetIdx = "", "", 0
	inspectRows, inspectDelimiter, inspectSheet, inspectSheetIdx = -1, "", "", 0
	cfg = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeSales(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(p, []byte(salesCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestCLI_ApplyChainsInstructions(t *testing.T) {
	home := setupHome(t)
	in := writeSales(t, home)
	outPath := filepath.Join(home, "out", "result.csv")

	out := runCmd(t, "apply", in,
		"-q", "remove missing values",
		"-q", "sort Sales descending",
		"-q", "Remove Duplicates",
		"--rows", "2",
		"-o", outPath)

	for _, want := range []string{
		"✓ Missing values removed.",
		"✓ Data sorted by 'Sales' in descending order.",
		"✓ Duplicates removed.",
		"[SCHEMA]",
		"| East | 300 |",
		"✓ Wrote 2 rows to " + outPath,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got, want := string(b), "Region,Sales\nEast,300\nNorth,50\n"; got != want {
		t.Fatalf("output csv = %q, want %q", got, want)
	}
}

func TestCLI_ApplyReportsFailuresWithoutExiting(t *testing.T) {
	home := setupHome(t)
	in := writeSales(t, home)

	out := runCmd(t, "apply", in, "-q", "rename Foo to Bar", "-q", "make it pretty", "--rows", "0")
	if !strings.Contains(out, "✗ Column 'Foo' not found in the dataset.") {
		t.Errorf("missing rename failure:\n%s", out)
	}
	if !strings.Contains(out, "⚠ No valid query found. Please try again.") {
		t.Errorf("missing no-match warning:\n%s", out)
	}
	if strings.Contains(out, "[SCHEMA]") {
		t.Errorf("--rows 0 should suppress the preview:\n%s", out)
	}
}

func TestCLI_ApplyErrors(t *testing.T) {
	home := setupHome(t)
	in := writeSales(t, home)

	if _, err := execCmd("apply", in); err == nil {
		t.Errorf("expected error without -q")
	}
	if _, err := execCmd("apply", filepath.Join(home, "missing.csv"), "-q", "sort Sales"); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := execCmd("apply", in, "-q", "sort Sales", "--delimiter", "#"); err == nil {
		t.Errorf("expected error for bad delimiter")
	}
}

func TestCLI_RejectsUnsupportedFiles(t *testing.T) {
	home := setupHome(t)
	p := filepath.Join(home, "notes.json")

	for _, args := range [][]string{
		{"apply", p, "-q", "sort Sales"},
		{"inspect", p},
		{"shell", p},
	} {
		_, err := execCmd(args...)
		if !errors.Is(err, loader.ErrUnsupported) {
			t.Errorf("%v: err = %v, want ErrUnsupported", args, err)
		}
	}
}

func TestCLI_Inspect(t *testing.T) {
	home := setupHome(t)
	in := writeSales(t, home)

	out := runCmd(t, "inspect", in, "--rows", "1")
	for _, want := range []string{"Rows: 4", "- Sales: int (non-null 3, missing 25.0%)", "| East | 300 |"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "| West |") {
		t.Errorf("inspect printed more rows than requested:\n%s", out)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := setupHome(t)

	runCmd(t, "config", "set", "preview_rows", "7")
	runCmd(t, "config", "set", "delimiter", ";")
	if _, err := os.Stat(filepath.Join(home, ".qtable", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "preview_rows: 7") || !strings.Contains(out, "delimiter: ;") {
		t.Fatalf("config show = %q", out)
	}

	if _, err := execCmd("config", "set", "log_format", "xml"); err == nil {
		t.Errorf("expected error for invalid log_format")
	}
	if _, err := execCmd("config", "set", "nope", "1"); err == nil {
		t.Errorf("expected error for unknown key")
	}
}

type fakeReader struct {
	lines  []string
	closed bool
}

func (f *fakeReader) ReadLine() (string, error) {
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	l := f.lines[0]
	f.lines = f.lines[1:]
	return l, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestShellSession(t *testing.T) {
	home := t.TempDir()
	df, err := loader.ReadCSV(strings.NewReader(salesCSV), loader.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	savePath := filepath.Join(home, "saved.csv")

	var out bytes.Buffer
	s := newShellSession(df, 2, &out)
	rl := &fakeReader{lines: []string{
		"remove missing values",
		"",
		"sort Sales ascending",
		":preview 1",
		":schema",
		":bogus",
		":save " + savePath,
		":reset",
		"rename Foo to Bar",
		":quit",
		"remove duplicates",
	}}
	if err := s.run(rl); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !rl.closed {
		t.Errorf("reader not closed")
	}
	if len(rl.lines) != 1 {
		t.Errorf(":quit should stop reading, %d lines left", len(rl.lines))
	}

	got := out.String()
	for _, want := range []string{
		"✓ Missing values removed.",
		"✓ Data sorted by 'Sales' in ascending order.",
		"| North | 50 |",
		"Rows: 3",
		"[SCHEMA]",
		"✗ Error: unknown command: :bogus",
		"✓ Wrote 3 rows to " + savePath,
		"✓ Table reset (4 rows, 2 columns)",
		"✗ Column 'Foo' not found in the dataset.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("shell output missing %q:\n%s", want, got)
		}
	}

	b, err := os.ReadFile(savePath)
	if err != nil {
		t.Fatalf("read saved: %v", err)
	}
	if string(b) != "Region,Sales\nNorth,50\nEast,300\nEast,300\n" {
		t.Errorf("saved csv = %q", string(b))
	}
	if s.current.Nrow() != 4 {
		t.Errorf("current rows after reset = %d, want 4", s.current.Nrow())
	}
}

func TestShellSessionMetaErrors(t *testing.T) {
	df, err := loader.ReadCSV(strings.NewReader(salesCSV), loader.DefaultOptions())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	s := newShellSession(df, 0, io.Discard)
	for _, line := range []string{":preview x", ":save", ":nope"} {
		if err := s.Execute(line); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}
	if err := s.Execute(":q"); err != errQuit {
		t.Errorf(":q = %v, want errQuit", err)
	}
	if s.id == "" {
		t.Errorf("session id not set")
	}
}
