package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestLoadWithNoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.DefaultK != Default().DefaultK {
		t.Fatalf("DefaultK = %d, want %d", cfg.DefaultK, Default().DefaultK)
	}
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apex.yaml")
	content := "default_k: 25\nbloom_fp_rate: 0.02\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) returned error: %v", path, err)
	}
	if cfg.DefaultK != 25 {
		t.Errorf("DefaultK = %d, want 25", cfg.DefaultK)
	}
	if cfg.BloomFPRate != 0.02 {
		t.Errorf("BloomFPRate = %v, want 0.02", cfg.BloomFPRate)
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	t.Setenv(StorePathEnvVar, "/tmp/custom-store.db")
	t.Setenv("APEX_DEFAULT_K", "42")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.StorePath != "/tmp/custom-store.db" {
		t.Errorf("StorePath = %q, want /tmp/custom-store.db", cfg.StorePath)
	}
	if cfg.DefaultK != 42 {
		t.Errorf("DefaultK = %d, want 42", cfg.DefaultK)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Weights.Path = 0.9
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for weights not summing to 1")
	}
}

func TestValidateRejectsDefaultKAboveMaxK(t *testing.T) {
	cfg := Default()
	cfg.DefaultK = 200
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for default_k exceeding max_k")
	}
}
