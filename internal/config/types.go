package config

// EndpointConfig describes one OpenAI-compatible chat-completions endpoint.
type EndpointConfig struct {
	BaseURL        string  `yaml:"base_url" koanf:"base_url"`
	Model          string  `yaml:"model" koanf:"model"`
	Temperature    float64 `yaml:"temperature" koanf:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// DetectorConfig describes the external object-detector endpoint.
type DetectorConfig struct {
	BaseURL        string `yaml:"base_url" koanf:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// InboxConfig controls how the orchestrator polls for new images.
type InboxConfig struct {
	Dir                 string   `yaml:"dir" koanf:"dir"`
	ProcessedDir        string   `yaml:"processed_dir" koanf:"processed_dir"`
	Patterns            []string `yaml:"patterns" koanf:"patterns"`
	PollIntervalSeconds float64  `yaml:"poll_interval_seconds" koanf:"poll_interval_seconds"`
}

// DecisionConfig holds the decision thresholds.
//
// AutoAcceptGate is deliberately a separate value from AutoAccept: the
// orchestrator applies the stricter gate on top of the decision core's own
// threshold before anything is written into the training dataset.
type DecisionConfig struct {
	AutoAccept       float64 `yaml:"auto_accept" koanf:"auto_accept"`
	AskHuman         float64 `yaml:"ask_human" koanf:"ask_human"`
	DetectorAccept   float64 `yaml:"detector_accept" koanf:"detector_accept"`
	DetectorAskHuman float64 `yaml:"detector_ask_human" koanf:"detector_ask_human"`
	AutoAcceptGate   float64 `yaml:"auto_accept_gate" koanf:"auto_accept_gate"`
	RiskThreshold    float64 `yaml:"risk_threshold" koanf:"risk_threshold"`
}

// DatasetConfig controls where auto-accepted images land and when the
// external retraining command fires.
type DatasetConfig struct {
	ImagesDir        string   `yaml:"images_dir" koanf:"images_dir"`
	LabelsDir        string   `yaml:"labels_dir" koanf:"labels_dir"`
	RetrainThreshold int      `yaml:"retrain_threshold" koanf:"retrain_threshold"`
	RetrainCommand   []string `yaml:"retrain_command" koanf:"retrain_command"`
}

// FeedbackConfig controls where human class feedback is archived.
type FeedbackConfig struct {
	Dir       string `yaml:"dir" koanf:"dir"`
	MetaDir   string `yaml:"meta_dir" koanf:"meta_dir"`
	ErrorsDir string `yaml:"errors_dir" koanf:"errors_dir"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// Config is the top-level damage-agent configuration, corresponding to
// .damage-agent.yml.
type Config struct {
	DataDir       string         `yaml:"data_dir" koanf:"data_dir"`
	Classes       []string       `yaml:"classes" koanf:"classes"`
	Inbox         InboxConfig    `yaml:"inbox" koanf:"inbox"`
	Vision        EndpointConfig `yaml:"vision" koanf:"vision"`
	Thinker       EndpointConfig `yaml:"thinker" koanf:"thinker"`
	Detector      DetectorConfig `yaml:"detector" koanf:"detector"`
	Decision      DecisionConfig `yaml:"decision" koanf:"decision"`
	Dataset       DatasetConfig  `yaml:"dataset" koanf:"dataset"`
	Feedback      FeedbackConfig `yaml:"feedback" koanf:"feedback"`
	MemoryDir     string         `yaml:"memory_dir" koanf:"memory_dir"`
	ExperienceLog string         `yaml:"experience_log" koanf:"experience_log"`
	HistoryDB     string         `yaml:"history_db" koanf:"history_db"`
	AuditDir      string         `yaml:"audit_dir" koanf:"audit_dir"`
	Server        ServerConfig   `yaml:"server" koanf:"server"`
}
