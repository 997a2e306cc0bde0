package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := resolveConfig("")
	if err != nil {
		t.Fatalf("resolveConfig unexpected err: %v", err)
	}
	if cfg.Workers != 3 {
		t.Fatalf("workers=%d, want default 3", cfg.Workers)
	}
	if cfg.OutputDir != "subscription" {
		t.Fatalf("output_dir=%q, want default %q", cfg.OutputDir, "subscription")
	}
}

func TestResolveConfig_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: 7\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := resolveConfig(path)
	if err != nil {
		t.Fatalf("resolveConfig unexpected err: %v", err)
	}
	if cfg.Workers != 7 {
		t.Fatalf("workers=%d, want=7", cfg.Workers)
	}
	if cfg.TopN != 15 {
		t.Fatalf("top_n=%d, want default 15", cfg.TopN)
	}
}

func TestResolveConfig_MissingFile(t *testing.T) {
	if _, err := resolveConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("err=nil, want error for missing config file")
	}
}
