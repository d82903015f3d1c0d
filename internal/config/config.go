// Package config loads application settings from defaults, an optional JSON
// file and environment variables, in that priority order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	AppName = "teashelf"

	// envPrefix is stripped from environment variables before they override
	// file values. A double underscore expresses nesting:
	// TEASHELF_SERVER__LISTEN_PORT -> server.listen_port
	envPrefix = "TEASHELF_"
)

var validate = validator.New()

// AppConfig is the root of all runtime settings.
type AppConfig struct {
	Debug   bool          `json:"debug"`
	Server  ServerConfig  `json:"server"`
	Browser BrowserConfig `json:"browser"`
	Scrape  ScrapeConfig  `json:"scrape"`
	Log     LogConfig     `json:"log"`
}

// ServerConfig carries the HTTP listener settings.
type ServerConfig struct {
	ListenPort   int      `json:"listen_port" validate:"min=1,max=65535"`
	AllowOrigins []string `json:"allow_origins"`
}

// BrowserConfig carries the shared Chrome process settings.
type BrowserConfig struct {
	Headless     bool   `json:"headless"`
	NoSandbox    bool   `json:"no_sandbox"`
	ChromeBin    string `json:"chrome_bin"`
	WindowWidth  int    `json:"window_width" validate:"min=1"`
	WindowHeight int    `json:"window_height" validate:"min=1"`
	// Prewarm launches the browser at startup instead of on the first import.
	Prewarm bool `json:"prewarm"`
}

// ScrapeConfig carries per-fetch settings. Timeouts are duration strings
// ("5s", "1500ms") so they read naturally in JSON and environment variables.
type ScrapeConfig struct {
	UserAgent   string `json:"user_agent"`
	NavTimeout  string `json:"nav_timeout" validate:"required"`
	EvalTimeout string `json:"eval_timeout" validate:"required"`
}

// NavTimeoutDuration returns the parsed navigation timeout. Valid after
// Load succeeded.
func (c ScrapeConfig) NavTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.NavTimeout)
	return d
}

// EvalTimeoutDuration returns the parsed evaluation timeout. Valid after
// Load succeeded.
func (c ScrapeConfig) EvalTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.EvalTimeout)
	return d
}

// LogConfig carries log output and rotation settings.
type LogConfig struct {
	Dir        string `json:"dir"`
	Console    bool   `json:"console"`
	MaxSizeMB  int    `json:"max_size_mb" validate:"min=1"`
	MaxBackups int    `json:"max_backups" validate:"min=0"`
}

// Default returns the built-in settings used when neither file nor
// environment overrides them.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenPort: 8080,
		},
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1920,
			WindowHeight: 1080,
			Prewarm:      true,
		},
		Scrape: ScrapeConfig{
			NavTimeout:  "5s",
			EvalTimeout: "10s",
		},
		Log: LogConfig{
			Dir:        "logs",
			Console:    true,
			MaxSizeMB:  100,
			MaxBackups: 20,
		},
	}
}

// Load builds the configuration from defaults, the given JSON file (skipped
// when path is empty) and TEASHELF_ environment variables.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "json"), nil); err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg AppConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validateAll(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) validateAll() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config: %s failed %q validation (value: %v)",
				fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	for name, value := range map[string]string{
		"scrape.nav_timeout":  c.Scrape.NavTimeout,
		"scrape.eval_timeout": c.Scrape.EvalTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid config: %s is not a duration: %q (examples: 5s, 1500ms)", name, value)
		}
	}

	return nil
}
