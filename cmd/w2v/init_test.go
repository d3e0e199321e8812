package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/4thel00z/w2v/internal"
)

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w2v.yaml")

	out := mustRun(t, "init", path)
	if !strings.Contains(out, path) {
		t.Errorf("output %q does not mention %s", out, path)
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if *cfg != *internal.DefaultConfig() {
		t.Errorf("written config differs from defaults: %+v", cfg)
	}
}

func TestInitCmdAlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w2v.yaml")
	writeFile(t, path, "vocab:\n  min_count: 2\n")

	if _, err := run(t, "init", path); err == nil {
		t.Fatal("expected error for existing config")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "vocab:\n  min_count: 2\n" {
		t.Error("existing config was overwritten")
	}

	mustRun(t, "init", "--force", path)
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Vocab.MinCount != 5 {
		t.Errorf("min_count = %d, want 5 after --force", cfg.Vocab.MinCount)
	}
}
