package domain

// Config is the persisted user configuration loaded from
// ~/.termflow/config.yaml.
type Config struct {
	Completion  CompletionConfig `yaml:"completion"`
	Security    SecurityConfig   `yaml:"security"`
	Preferences Preferences      `yaml:"preferences"`
	History     HistoryConfig    `yaml:"history"`
}

// CompletionConfig points at the external completion service used for
// fallback parsing.
type CompletionConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Model      string `yaml:"model"`
	AuthEnvVar string `yaml:"auth_env_var"`
	MaxTokens  int    `yaml:"max_tokens"`
}

// SecurityConfig locates the externally loadable policy documents.
type SecurityConfig struct {
	PolicyFile string `yaml:"policy_file"`
	RulesFile  string `yaml:"rules_file"`
}

// HistoryConfig bounds the in-memory history log and names the files it
// persists to between runs.
type HistoryConfig struct {
	MaxEntries    int    `yaml:"max_entries"`
	RecentWindow  int    `yaml:"recent_window"`
	AuditDatabase string `yaml:"audit_database"`
	SnapshotFile  string `yaml:"snapshot_file"`
}
