package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config represents the orgogpt CLI configuration
type Config struct {
	Orgo      Orgo      `mapstructure:"orgo"`
	Session   Session   `mapstructure:"session"`
	Translate Translate `mapstructure:"translate"`
	Server    Server    `mapstructure:"server"`
	History   History   `mapstructure:"history"`
}

// Orgo configures the remote desktop provider
type Orgo struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Computer       Computer      `mapstructure:"computer"`
}

// Computer holds the settings sent when a new project is created.
// Zero values let the provider pick.
type Computer struct {
	Name string `mapstructure:"name"`
	OS   string `mapstructure:"os"`
	RAM  int    `mapstructure:"ram"`
	CPU  int    `mapstructure:"cpu"`
}

// Session configures connection lifecycle timing and persistence
type Session struct {
	ReadyTimeout    time.Duration `mapstructure:"ready_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	StoreDir        string        `mapstructure:"store_dir"`
}

// Translate configures the natural-language translator
type Translate struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Server configures `orgogpt serve`
type Server struct {
	Listen          string        `mapstructure:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// History configures the task history file
type History struct {
	Path  string `mapstructure:"path"`
	Limit int    `mapstructure:"limit"`
}

// Load loads the configuration from path, or from ~/.orgogpt/config.yaml when
// path is empty. A missing default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(expanded)
	} else {
		configDir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	// Try to read config file, but don't fail if it doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, err
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Session.StoreDir = expandPath(cfg.Session.StoreDir)
	cfg.History.Path = expandPath(cfg.History.Path)

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("orgo.base_url", "https://www.orgo.ai/api")
	v.SetDefault("orgo.request_timeout", "30s")

	v.SetDefault("session.ready_timeout", "180s")
	v.SetDefault("session.poll_interval", "1s")
	v.SetDefault("session.refresh_interval", "5s")
	v.SetDefault("session.store_dir", "~/.orgogpt")

	v.SetDefault("translate.base_url", "https://api.anthropic.com")
	v.SetDefault("translate.model", "claude-3-5-sonnet-latest")
	v.SetDefault("translate.max_tokens", 1000)
	v.SetDefault("translate.timeout", "60s")

	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("history.path", "~/.orgogpt/history.json")
	v.SetDefault("history.limit", 20)
}

// bindEnv maps the conventional environment variables onto config keys
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"orgo.api_key":      "ORGO_API_KEY",
		"orgo.base_url":     "ORGO_BASE_URL",
		"translate.api_key": "ANTHROPIC_API_KEY",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// expandPath expands ~ to the home directory, keeping the original on failure
func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// Dir returns the orgogpt configuration directory path
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".orgogpt"), nil
}

// EnsureDir creates the config directory if it doesn't exist
func EnsureDir() error {
	configDir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0755)
}
