package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/4thel00z/w2v/internal"
	"github.com/fsnotify/fsnotify"
)

var quickTrainArgs = []string{
	"--threads", "1",
	"--dim", "8",
	"--epochs", "1",
	"--min-count", "1",
	"--hs",
	"--negative", "0",
	"--random-window=false",
}

func trainArgs(corpus string, extra ...string) []string {
	args := append([]string{"train", corpus}, quickTrainArgs...)
	return append(args, extra...)
}

func firstLine(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.TrimSpace(line)
}

func TestTrainCmdWritesVectors(t *testing.T) {
	corpus := writeTestCorpus(t)
	output := filepath.Join(t.TempDir(), "vectors.txt")

	out := mustRun(t, trainArgs(corpus, "--model", "skipgram", "-o", output)...)
	if !strings.HasPrefix(out, "skipgram: 11 entries, 0 paragraphs") {
		t.Errorf("unexpected summary %q", out)
	}

	if got := firstLine(t, output); got != "11 8" {
		t.Errorf("header = %q, want %q", got, "11 8")
	}
}

func TestTrainCmdParagraphVectors(t *testing.T) {
	corpus := writeTestCorpus(t)
	output := filepath.Join(t.TempDir(), "vectors.txt")

	out := mustRun(t, "--json", "train", corpus, "--model", "pvdbow", "-o", output,
		"--threads", "1", "--dim", "4", "--epochs", "1", "--min-count", "1", "--negative", "2", "--table-size", "1000")

	var got struct {
		Model      string `json:"model"`
		Paragraphs int    `json:"paragraphs"`
		Entries    int    `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if got.Model != "pvdbow" || got.Paragraphs != 80 || got.Entries != 11 {
		t.Errorf("got %+v", got)
	}

	// words then one row per corpus line
	if line := firstLine(t, output); line != "91 4" {
		t.Errorf("header = %q, want %q", line, "91 4")
	}
}

func TestTrainCmdBinaryFormat(t *testing.T) {
	corpus := writeTestCorpus(t)
	output := filepath.Join(t.TempDir(), "vectors.bin")

	mustRun(t, trainArgs(corpus, "--format", "binary", "-o", output)...)

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	vs, err := internal.ReadBinary(f)
	if err != nil {
		t.Fatalf("read binary: %v", err)
	}
	if vs.Len() != 11 || vs.Dim != 8 {
		t.Errorf("got %d rows of %d, want 11 of 8", vs.Len(), vs.Dim)
	}
}

func TestTrainCmdClasses(t *testing.T) {
	corpus := writeTestCorpus(t)
	output := filepath.Join(t.TempDir(), "classes.txt")

	mustRun(t, trainArgs(corpus, "--classes", "3", "-o", output)...)

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 11 {
		t.Fatalf("got %d class lines, want 11", len(lines))
	}
	for _, l := range lines {
		if fields := strings.Fields(l); len(fields) != 2 {
			t.Errorf("malformed class line %q", l)
		}
	}
}

func TestTrainCmdSaveVocab(t *testing.T) {
	corpus := writeTestCorpus(t)
	dir := t.TempDir()
	vocab := filepath.Join(dir, "vocab.txt")

	mustRun(t, trainArgs(corpus, "-o", filepath.Join(dir, "v.txt"), "--save-vocab", vocab)...)

	if got := firstLine(t, vocab); got != "</s> 80" {
		t.Errorf("first vocab line = %q, want %q", got, "</s> 80")
	}
}

func TestTrainCmdInvalidModel(t *testing.T) {
	corpus := writeTestCorpus(t)
	_, err := run(t, trainArgs(corpus, "--model", "glove", "-o", filepath.Join(t.TempDir(), "v.txt"))...)
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestApplyTrainFlags(t *testing.T) {
	cmd := NewTrainCmd(nil, nil)
	if err := cmd.ParseFlags([]string{"--dim", "42", "--model", "pvdm", "--lowercase", "--classes", "7"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	c := *internal.DefaultConfig()
	c.Training.Window = 9
	applyTrainFlags(cmd, &c)

	if c.Training.Dim != 42 {
		t.Errorf("dim = %d, want 42", c.Training.Dim)
	}
	if c.Training.Model != "pvdm" {
		t.Errorf("model = %q, want pvdm", c.Training.Model)
	}
	if !c.Vocab.Lowercase {
		t.Error("lowercase not applied")
	}
	if c.Output.Classes != 7 {
		t.Errorf("classes = %d, want 7", c.Output.Classes)
	}
	// flags left alone keep the config value
	if c.Training.Window != 9 {
		t.Errorf("window = %d, want 9", c.Training.Window)
	}
}

func TestShouldRetrain(t *testing.T) {
	tests := []struct {
		name   string
		event  fsnotify.Event
		corpus string
		want   bool
	}{
		{
			name:   "write to corpus",
			event:  fsnotify.Event{Name: "/data/corpus.txt", Op: fsnotify.Write},
			corpus: "/data/corpus.txt",
			want:   true,
		},
		{
			name:   "corpus replaced",
			event:  fsnotify.Event{Name: "/data/corpus.txt", Op: fsnotify.Create},
			corpus: "/data/corpus.txt",
			want:   true,
		},
		{
			name:   "unclean corpus path",
			event:  fsnotify.Event{Name: "/data/corpus.txt", Op: fsnotify.Write},
			corpus: "/data/./corpus.txt",
			want:   true,
		},
		{
			name:   "sibling file",
			event:  fsnotify.Event{Name: "/data/vectors.txt", Op: fsnotify.Write},
			corpus: "/data/corpus.txt",
			want:   false,
		},
		{
			name:   "chmod ignored",
			event:  fsnotify.Event{Name: "/data/corpus.txt", Op: fsnotify.Chmod},
			corpus: "/data/corpus.txt",
			want:   false,
		},
		{
			name:   "remove ignored",
			event:  fsnotify.Event{Name: "/data/corpus.txt", Op: fsnotify.Remove},
			corpus: "/data/corpus.txt",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldRetrain(tt.event, tt.corpus)
			if got != tt.want {
				t.Errorf("shouldRetrain() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrainCmdMetricsAddr(t *testing.T) {
	corpus := writeTestCorpus(t)
	output := filepath.Join(t.TempDir(), "vectors.txt")

	mustRun(t, trainArgs(corpus, "-o", output, "--metrics-addr", "127.0.0.1:0")...)

	if _, err := os.Stat(output); err != nil {
		t.Errorf("vectors not written: %v", err)
	}
}
