package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCorpus = "the king rules the land\nthe queen rules the land\nthe dog eats the bone\nthe cat eats the fish\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeTestCorpus repeats testCorpus so every token clears min counts.
func writeTestCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	writeFile(t, path, strings.Repeat(testCorpus, 20))
	return path
}

// run executes the root command with args under a fresh app and returns
// stdout. A missing config path keeps the defaults.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	root := NewRootCmd("test", newApp(io.Discard))
	root.SetArgs(append([]string{"--config", cfg}, args...))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}
