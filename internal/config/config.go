package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DAMAGEAGENT_*). Nested keys use a
// double underscore: DAMAGEAGENT_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("DAMAGEAGENT_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "DAMAGEAGENT_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("classes must not be empty")
	}
	if c.Inbox.Dir == "" {
		return fmt.Errorf("inbox.dir is required")
	}
	if c.Inbox.ProcessedDir == "" {
		return fmt.Errorf("inbox.processed_dir is required")
	}
	if c.Inbox.PollIntervalSeconds <= 0 {
		return fmt.Errorf("inbox.poll_interval_seconds must be positive")
	}
	if c.Vision.BaseURL == "" || c.Thinker.BaseURL == "" {
		return fmt.Errorf("vision.base_url and thinker.base_url are required")
	}
	if c.Vision.TimeoutSeconds <= 0 || c.Thinker.TimeoutSeconds <= 0 {
		return fmt.Errorf("model endpoint timeouts must be positive")
	}
	if c.Detector.BaseURL == "" {
		return fmt.Errorf("detector.base_url is required")
	}
	d := c.Decision
	if d.AutoAccept < d.AskHuman {
		return fmt.Errorf("decision.auto_accept must be >= decision.ask_human")
	}
	if d.AutoAcceptGate < 0 || d.AutoAcceptGate > 1 {
		return fmt.Errorf("decision.auto_accept_gate must be in [0,1]")
	}
	if d.RiskThreshold < 0 || d.RiskThreshold > 1 {
		return fmt.Errorf("decision.risk_threshold must be in [0,1]")
	}
	if c.Dataset.RetrainThreshold < 0 {
		return fmt.Errorf("dataset.retrain_threshold must be non-negative")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	return nil
}

// EnsureDirs creates every directory the agent writes to. A failure here is
// a fatal startup error: the orchestrator must not begin the loop without
// its directory tree in place.
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.Inbox.Dir,
		c.Inbox.ProcessedDir,
		c.Dataset.ImagesDir,
		c.Dataset.LabelsDir,
		c.Feedback.Dir,
		c.Feedback.MetaDir,
		c.Feedback.ErrorsDir,
		c.MemoryDir,
		c.AuditDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}
	return nil
}
