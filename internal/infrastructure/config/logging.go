package config

// LoggingConfig configures process logs and persisted run logs
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
	Output string `mapstructure:"output" validate:"required,oneof=stdout stderr file"`

	// FilePath is required when Output is "file"
	FilePath string `mapstructure:"file_path" validate:"required_if=Output file"`

	// Persist also writes every run's log entries to the history database,
	// where `floodfill runs logs` reads them
	Persist bool `mapstructure:"persist"`
}
