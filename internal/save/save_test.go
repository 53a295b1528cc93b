package save

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"scanlines.svg":     "scanlines.svg",
		` a/b:c*?"<>|.png `: "abc.png",
		"..":                "export",
		"":                  "export",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	sink := Sink{Dir: dir}

	first, err := sink.Save("scanlines.svg", []byte("one"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := sink.Save("scanlines.svg", []byte("two"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first != filepath.Join(dir, "scanlines.svg") {
		t.Fatalf("first = %q", first)
	}
	if second != filepath.Join(dir, "scanlines-1.svg") {
		t.Fatalf("second = %q", second)
	}
	data, err := os.ReadFile(first)
	if err != nil || string(data) != "one" {
		t.Fatalf("first file = %q, %v", data, err)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "exports")
	path, err := Sink{Dir: dir}.Save("scanlines.png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() != 3 {
		t.Fatalf("stat %s: %v", path, err)
	}
}

func TestSaveFailsOnUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (Sink{Dir: blocker}).Save("x.svg", nil); err == nil {
		t.Fatalf("expected error saving under a regular file")
	}
}
