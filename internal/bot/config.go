package bot

// Config represents the configuration for the bot
type Config struct {
	Token string
	// Link appended to replies so users can open the web app
	AppURL string
	// Long polling timeout in seconds
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		UpdateTimeout: 60,
	}
}
