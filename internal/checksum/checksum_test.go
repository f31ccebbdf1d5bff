package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSum(t *testing.T) {
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs share a digest")
	}
}

func TestSumFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	got, err := SumFile(path)
	if err != nil || got != "" {
		t.Fatalf("missing file = %q, %v", got, err)
	}

	data := []byte(`{"is_dark_mode": true}`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = SumFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != Sum(data) {
		t.Errorf("SumFile = %s, want %s", got, Sum(data))
	}
}
