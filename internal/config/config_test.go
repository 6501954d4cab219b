package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Decision.AutoAccept != 0.8 {
		t.Errorf("expected default auto_accept 0.8, got %v", cfg.Decision.AutoAccept)
	}
	if cfg.Decision.AutoAcceptGate != 0.85 {
		t.Errorf("expected default auto_accept_gate 0.85, got %v", cfg.Decision.AutoAcceptGate)
	}
	if cfg.Decision.RiskThreshold != 0.7 {
		t.Errorf("expected default risk_threshold 0.7, got %v", cfg.Decision.RiskThreshold)
	}
	if len(cfg.Classes) != 4 {
		t.Errorf("expected 4 default classes, got %d", len(cfg.Classes))
	}
	if cfg.Dataset.RetrainThreshold != 500 {
		t.Errorf("expected default retrain_threshold 500, got %d", cfg.Dataset.RetrainThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.damage-agent.yml")

	original := DefaultConfig()
	original.Classes = []string{"dent", "rust"}
	original.Vision.Model = "custom-vl"
	original.Decision.AutoAcceptGate = 0.9
	original.Inbox.Patterns = []string{"*.bmp"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Vision.Model != "custom-vl" {
		t.Errorf("vision.model: got %q, want %q", loaded.Vision.Model, "custom-vl")
	}
	if loaded.Decision.AutoAcceptGate != 0.9 {
		t.Errorf("decision.auto_accept_gate: got %v, want 0.9", loaded.Decision.AutoAcceptGate)
	}
	if len(loaded.Classes) != 2 || loaded.Classes[0] != "dent" {
		t.Errorf("classes round-trip failed: %v", loaded.Classes)
	}
	if len(loaded.Inbox.Patterns) != 1 || loaded.Inbox.Patterns[0] != "*.bmp" {
		t.Errorf("inbox.patterns round-trip failed: %v", loaded.Inbox.Patterns)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Decision.AutoAccept != 0.8 {
		t.Errorf("expected default thresholds, got %v", cfg.Decision.AutoAccept)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	t.Setenv("DAMAGEAGENT_VISION__MODEL", "env-model")
	t.Setenv("DAMAGEAGENT_SERVER__PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Vision.Model != "env-model" {
		t.Errorf("vision.model: got %q, want env override %q", cfg.Vision.Model, "env-model")
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port: got %d, want env override 9999", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no classes", func(c *Config) { c.Classes = nil }},
		{"no inbox", func(c *Config) { c.Inbox.Dir = "" }},
		{"zero poll interval", func(c *Config) { c.Inbox.PollIntervalSeconds = 0 }},
		{"zero timeout", func(c *Config) { c.Vision.TimeoutSeconds = 0 }},
		{"inverted thresholds", func(c *Config) { c.Decision.AskHuman = 0.9 }},
		{"gate out of range", func(c *Config) { c.Decision.AutoAcceptGate = 1.5 }},
		{"negative retrain threshold", func(c *Config) { c.Dataset.RetrainThreshold = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
