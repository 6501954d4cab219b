package config

import "path/filepath"

// DefaultClasses is the damage class list used for YOLO label export.
// The index of each class is its class index in the label files.
var DefaultClasses = []string{"dent", "hole", "rust", "not_damaged"}

// DefaultConfig returns a Config with sensible defaults. All paths are
// rooted under data_dir so a fresh deployment only needs the two model
// endpoints configured.
func DefaultConfig() *Config {
	dataDir := "data"
	return &Config{
		DataDir: dataDir,
		Classes: DefaultClasses,
		Inbox: InboxConfig{
			Dir:                 filepath.Join(dataDir, "incoming"),
			ProcessedDir:        filepath.Join(dataDir, "processed"),
			Patterns:            []string{"*.jpg", "*.jpeg", "*.png"},
			PollIntervalSeconds: 1.0,
		},
		Vision: EndpointConfig{
			BaseURL:        "http://127.0.0.1:8080/v1",
			Model:          "Qwen3VL-2B-Instruct",
			Temperature:    0.2,
			TimeoutSeconds: 120,
		},
		Thinker: EndpointConfig{
			BaseURL:        "http://127.0.0.1:8081/v1",
			Model:          "Qwen3-4B-Thinking",
			Temperature:    0.2,
			TimeoutSeconds: 120,
		},
		Detector: DetectorConfig{
			BaseURL:        "http://127.0.0.1:8090",
			TimeoutSeconds: 30,
		},
		Decision: DecisionConfig{
			AutoAccept:       0.8,
			AskHuman:         0.4,
			DetectorAccept:   0.75,
			DetectorAskHuman: 0.45,
			AutoAcceptGate:   0.85,
			RiskThreshold:    0.7,
		},
		Dataset: DatasetConfig{
			ImagesDir:        filepath.Join(dataDir, "dataset", "images", "train"),
			LabelsDir:        filepath.Join(dataDir, "dataset", "labels", "train"),
			RetrainThreshold: 500,
		},
		Feedback: FeedbackConfig{
			Dir:       filepath.Join(dataDir, "feedback"),
			MetaDir:   filepath.Join(dataDir, "feedback_meta"),
			ErrorsDir: filepath.Join(dataDir, "errors"),
		},
		MemoryDir:     filepath.Join(dataDir, "agent_memory"),
		ExperienceLog: filepath.Join(dataDir, "rl", "rl_steps.jsonl"),
		HistoryDB:     filepath.Join(dataDir, "history.db"),
		AuditDir:      filepath.Join(dataDir, "audit"),
		Server: ServerConfig{
			Port: 8765,
		},
	}
}
