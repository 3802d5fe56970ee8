package audit

// Config controls audit persistence.
type Config struct {
	// Enabled turns audit persistence on. When false no database is
	// opened and operations are only reflected in the ledger history.
	Enabled bool `yaml:"enabled"`
	// Path is the SQLite database file. Relative paths resolve against
	// the repository root.
	Path string `yaml:"path"`
	// RetentionDays controls how many days of events to keep. Zero
	// disables the retention worker.
	RetentionDays int `yaml:"retentionDays"`
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Path:          "audit.db",
		RetentionDays: 90,
	}
}
