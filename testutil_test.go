// testutil_test.go -- shared test helpers for the cdb package

package cdb

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// tempDest returns a fresh, not-yet-existing path under os.TempDir for
// an AtomicWriter destination, and registers its (and any stray
// ".tmp.*" sibling's) removal on test cleanup.
func tempDest(t *testing.T, pattern string) string {
	t.Helper()

	dest := fmt.Sprintf("%s/%s%d.cdb", os.TempDir(), pattern, rand.Int())
	t.Cleanup(func() {
		os.Remove(dest)
		matches, _ := filepath.Glob(dest + ".tmp.*")
		for _, m := range matches {
			os.Remove(m)
		}
	})
	return dest
}

func newAsserter(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}

		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}

		s := fmt.Sprintf(msg, args...)
		t.Fatalf("%s: %d: Assertion failed: %s\n", file, line, s)
	}
}

var keyw = []string{
	"expectoration",
	"mizzenmastman",
	"stockfather",
	"pictorialness",
	"villainous",
	"unquality",
	"sized",
	"Tarahumari",
	"endocrinotherapy",
	"quicksandy",
	"heretics",
	"pediment",
	"spleen's",
	"Shepard's",
	"paralyzed",
	"megahertzes",
	"Richardson's",
	"mechanics's",
	"Springfield",
	"burlesques",
}

// buildCDB writes each (keys[i], vals[i]) pair via a Writer over an
// in-memory sink and returns the finished bytes.
func buildCDB(t *testing.T, keys, vals []string) []byte {
	t.Helper()

	sink := newMemSink()
	w, err := NewWriter(sink)
	if err != nil {
		t.Fatalf("NewWriter: %s", err)
	}

	for i := range keys {
		if err := w.Add([]byte(keys[i]), []byte(vals[i])); err != nil {
			t.Fatalf("Add(%q): %s", keys[i], err)
		}
	}

	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %s", err)
	}

	return sink.buf
}

// memSink is a minimal in-memory Sink: a growable buffer with an
// absolute write cursor, enough to drive Writer without touching the
// filesystem.
type memSink struct {
	buf    []byte
	cursor int
}

func newMemSink() *memSink {
	return &memSink{}
}

func (m *memSink) Write(p []byte) (int, error) {
	end := m.cursor + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.cursor:end], p)
	m.cursor = end
	return len(p), nil
}

func (m *memSink) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		m.cursor = int(offset)
	case 1:
		m.cursor += int(offset)
	case 2:
		m.cursor = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("memSink: bad whence %d", whence)
	}
	return int64(m.cursor), nil
}
