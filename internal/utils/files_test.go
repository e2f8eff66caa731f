package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestArtifactName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	if got := ArtifactName("Scatter_Plot", "png", ts); got != "Scatter_Plot_20240309_140507.png" {
		t.Fatalf("ArtifactName = %q", got)
	}
	if got := ArtifactName("processed_data", ".csv", ts); got != "processed_data_20240309_140507.csv" {
		t.Fatalf("ArtifactName with dotted ext = %q", got)
	}
	pattern := regexp.MustCompile(`^Pie_Chart_\d{8}_\d{6}\.html$`)
	if got := ArtifactName("Pie_Chart", "html", time.Now()); !pattern.MatchString(got) {
		t.Fatalf("ArtifactName = %q does not match pattern", got)
	}
}

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	if err := SafeWriteFile(path, []byte("hello")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "hello" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"a\": 1") {
		t.Fatalf("not indented: %s", b)
	}
}

func TestUniqueName(t *testing.T) {
	used := map[string]int{}
	got := []string{
		UniqueName("data", ".md", used),
		UniqueName("data", ".md", used),
		UniqueName("data", ".md", used),
		UniqueName("other", ".md", used),
		UniqueName("data__2", ".md", used),
	}
	want := []string{"data.md", "data__2.md", "data__3.md", "other.md", "data__2__2.md"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}
