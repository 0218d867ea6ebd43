package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.baseDir = filepath.Dir(absPath)

	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file without touching the
// process environment.
func LoadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

type envOverrides struct {
	Listen        string `env:"CANONROUTE_LISTEN"`
	TrailingSlash string `env:"CANONROUTE_TRAILING_SLASH"`
	ToLowerCase   string `env:"CANONROUTE_TO_LOWER_CASE"`
	StatusCode    string `env:"CANONROUTE_STATUS_CODE"`
	LowerCaseMode string `env:"CANONROUTE_LOWER_CASE_MODE"`
	LogLevel      string `env:"CANONROUTE_LOG_LEVEL"`
	DecisionLog   string `env:"CANONROUTE_DECISION_LOG"`
}

// ApplyEnv overrides settings from CANONROUTE_* variables. A nil environ
// reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	values := map[string]string{
		"server.listen":                 o.Listen,
		"redirect.enable.trailingSlash": o.TrailingSlash,
		"redirect.enable.toLowerCase":   o.ToLowerCase,
		"redirect.statusCode":           o.StatusCode,
		"redirect.lowerCaseMode":        o.LowerCaseMode,
		"logging.level":                 o.LogLevel,
		"logging.decisionLog":           o.DecisionLog,
	}
	for key, value := range values {
		if value == "" {
			delete(values, key)
		}
	}
	return c.ApplyDotted(values)
}

func (c *Config) resolvePath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	base := c.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}
