package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/qtable-cli/internal/utils"
)

func TestSafeWriteFileCreatesParentAndReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out.csv")
	if err := utils.SafeWriteFile(p, []byte("a,b\n1,2\n")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := utils.SafeWriteFile(p, []byte("a,b\n3,4\n")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "a,b\n3,4\n" {
		t.Fatalf("unexpected content: %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := utils.ExpandHome("~/.qtable/history")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if want := filepath.Join(home, ".qtable", "history"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got, err = utils.ExpandHome("relative/./path")
	if err != nil {
		t.Fatalf("expand relative: %v", err)
	}
	if got != filepath.Join("relative", "path") {
		t.Fatalf("unexpected clean path: %q", got)
	}
}
