package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/laprelay/pkg/errors"
)

// DefaultFeedURL is the live page of the track the relay follows when no
// FEED_URL is configured.
const DefaultFeedURL = "https://gs21.gokartsystem.pl/pl/api/live_www__tid_60_h_e72641d13c07348c3b3b4bec9072f915"

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Relay configuration
	FeedURL  string
	HTTPHost string
	HTTPPort int

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.laprelay.yaml or ./.laprelay.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	viper.SetDefault("feed_url", DefaultFeedURL)
	viper.SetDefault("http_host", "0.0.0.0")
	viper.SetDefault("http_port", 3000)
	viper.SetDefault("log_format", "auto")
	viper.SetDefault("log_output", "stderr")

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".laprelay")
	}

	// A missing config file is fine.
	_ = viper.ReadInConfig()

	return &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no_color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		FeedURL:  viper.GetString("feed_url"),
		HTTPHost: viper.GetString("http_host"),
		HTTPPort: viper.GetInt("http_port"),

		LogLevel:  viper.GetString("log_level"),
		LogFormat: viper.GetString("log_format"),
		LogOutput: viper.GetString("log_output"),
	}, nil
}

// ReadFile merges an explicitly named config file into c. keepFeedURL
// leaves a --feed-url flag value in place.
func (c *Config) ReadFile(path string, keepFeedURL bool) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return errors.NewConfigError("config", "failed to read "+path, err)
	}
	c.ConfigFile = viper.ConfigFileUsed()
	if !keepFeedURL {
		c.FeedURL = viper.GetString("feed_url")
	}
	c.HTTPHost = viper.GetString("http_host")
	c.HTTPPort = viper.GetInt("http_port")
	c.LogFormat = viper.GetString("log_format")
	c.LogOutput = viper.GetString("log_output")
	return nil
}

// UpdateFromFlags applies parsed flag values so they take precedence over
// config file and environment values.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// godotenv never overrides a variable that is already set, so .env.local
// is loaded first to take precedence over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
