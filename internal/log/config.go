package log

// Config mirrors the `log:` section of the agent configuration.
type Config struct {
	Level     string           `mapstructure:"level"`
	Pattern   string           `mapstructure:"pattern"`
	Time      string           `mapstructure:"time"`
	Appenders []AppenderConfig `mapstructure:"appenders"`
}

// AppenderConfig selects one log output. Options are appender-specific
// and decoded per type (see appender.go).
type AppenderConfig struct {
	Type    string                 `mapstructure:"type"`
	Options map[string]interface{} `mapstructure:"options"`
}

// FileAppenderOpt holds lumberjack rotation settings for the file appender.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

const (
	defaultPattern = "%time [%level] %field %msg%n"
	defaultTime    = "2006-01-02 15:04:05.000"
)

// DefaultConfig is used when the config file has no `log:` section.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Pattern: defaultPattern,
		Time:    defaultTime,
		Appenders: []AppenderConfig{
			{Type: "console"},
		},
	}
}
