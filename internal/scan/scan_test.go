package scan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/vocabtrain/vocabtrain/internal/errs"
	"github.com/vocabtrain/vocabtrain/internal/vocab"
)

func writeTempCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.bin")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// TestScanParallelEquivalence checks that, for a corpus shorter than one
// chunk, single-threaded and multi-threaded runs produce identical
// TokenStats, since the whole file lands in a single job either way.
func TestScanParallelEquivalence(t *testing.T) {
	ts := vocab.New(vocab.PresetBin)
	ts.AddToken("ab")
	ts.AddToken("abab")

	content := strings.Repeat("ab", 500)
	path := writeTempCorpus(t, content)

	single, err := Scan(ts.Clone(), path, 1, 1<<20, nil)
	if err != nil {
		t.Fatalf("Scan(workers=1) error = %v", err)
	}
	parallel, err := Scan(ts.Clone(), path, 8, 1<<20, nil)
	if err != nil {
		t.Fatalf("Scan(workers=8) error = %v", err)
	}

	if diff := deep.Equal(single, parallel); diff != nil {
		t.Errorf("single- vs multi-threaded TokenStats diverge: %v", diff)
	}
}

func TestScanAccumulatesAcrossChunks(t *testing.T) {
	ts := vocab.New(vocab.PresetBin)
	ts.AddToken("ab")

	content := strings.Repeat("ab", 10000)
	path := writeTempCorpus(t, content)

	stats, err := Scan(ts, path, 4, 64, nil) // force many small chunks
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.ScannedBytes != uint64(len(content)) {
		t.Errorf("ScannedBytes = %d, want %d", stats.ScannedBytes, len(content))
	}
	if stats.Cost == 0 {
		t.Errorf("Cost = 0 for non-empty corpus")
	}
}

func TestScanMissingFileIsCorruptInput(t *testing.T) {
	ts := vocab.New(vocab.PresetBin)
	_, err := Scan(ts, filepath.Join(t.TempDir(), "does-not-exist"), 1, 0, nil)
	if !errors.Is(err, errs.ErrCorruptInput) {
		t.Fatalf("error = %v, want wrapping %v", err, errs.ErrCorruptInput)
	}
}

func TestScanEmptyCorpus(t *testing.T) {
	ts := vocab.New(vocab.PresetHex)
	path := writeTempCorpus(t, "")

	stats, err := Scan(ts, path, 2, 0, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.Cost != 0 || stats.ScannedBytes != 0 {
		t.Errorf("stats = %+v, want zero cost and zero scanned bytes for an empty corpus", stats)
	}
}
