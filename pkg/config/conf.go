package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mchmarny/scoring/pkg/form"
	"gopkg.in/yaml.v3"
)

const (
	EnvFileName = ".env"

	apiURLDefault        = "http://localhost:8000/api/v1"
	apiTimeoutDefault    = 10 * time.Second
	reportTimeoutDefault = 5 * time.Second
	addressDefault       = "127.0.0.1"
	portDefault          = 8080
	pageInputTTLDefault  = 10 * time.Minute
	maxPort              = 65535
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents app config object.
type Config struct {
	API    API          `yaml:"api" json:"api"`
	Server Server       `yaml:"server" json:"server"`
	Fields []form.Field `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// API configures access to the scoring service.
type API struct {
	URL           string        `yaml:"url" json:"url"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	ReportTimeout time.Duration `yaml:"report_timeout" json:"report_timeout"`
}

type Server struct {
	Address      string        `yaml:"address" json:"address"`
	Port         int           `yaml:"port" json:"port"`
	PageInputTTL time.Duration `yaml:"page_input_ttl" json:"page_input_ttl"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		API: API{
			URL:           apiURLDefault,
			Timeout:       apiTimeoutDefault,
			ReportTimeout: reportTimeoutDefault,
		},
		Server: Server{
			Address:      addressDefault,
			Port:         portDefault,
			PageInputTTL: pageInputTTLDefault,
		},
		Fields: form.DefaultFields(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	// fields from the file replace the built-in catalogue as a whole
	c.Fields = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	if len(c.Fields) == 0 {
		c.Fields = form.DefaultFields()
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api url must be an absolute http(s) URL: %q", ErrInvalidConfig, c.API.URL)
	}
	if c.API.Timeout < 0 || c.API.ReportTimeout < 0 {
		return fmt.Errorf("%w: timeouts cannot be negative", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: port out of range: %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.PageInputTTL <= 0 {
		return fmt.Errorf("%w: page input ttl must be positive", ErrInvalidConfig)
	}
	if err := form.Validate(c.Fields); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return b, nil
}

// LoadEnv loads variables from the .env files that exist. Variables
// already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{EnvFileName}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
	}
	return nil
}
