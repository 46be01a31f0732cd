package logger

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level"`

	// Format selects the output format: "json" or "console".
	Format string `mapstructure:"format"`

	// Output selects the output stream: "stdout" or "stderr".
	Output string `mapstructure:"output"`

	// NoColor disables ANSI colors in console format.
	NoColor bool `mapstructure:"no_color"`

	// Timestamp enables timestamps on every entry.
	Timestamp bool `mapstructure:"timestamp"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}
