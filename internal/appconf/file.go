package appconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML representation of Config. Zero values mean "use the
// default".
type FileConfig struct {
	Port             int           `yaml:"port" validate:"omitempty,min=0,max=65535"`
	Env              string        `yaml:"env" validate:"omitempty,oneof=development test production"`
	Verbose          bool          `yaml:"verbose"`
	RateLimit        int           `yaml:"rate-limit" validate:"omitempty,min=1"`
	AutoplayDuration time.Duration `yaml:"autoplay-duration" validate:"omitempty,min=1s"`
	TickInterval     time.Duration `yaml:"tick-interval" validate:"omitempty,min=10ms,max=10s"`
	SessionTTL       time.Duration `yaml:"session-ttl" validate:"omitempty,min=1m"`
	MaxUploadBytes   int64         `yaml:"max-upload-bytes" validate:"omitempty,min=1024"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadFromFile reads, parses and validates a YAML config file.
func LoadFromFile(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and reports every offending field.
func (c *FileConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (%v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// ToAppConfig applies the file values on top of the defaults.
func (c *FileConfig) ToAppConfig() Config {
	cfg := Default()
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	if c.Env != "" {
		cfg.Env = EnvFlagToEnvironment(c.Env)
	}
	cfg.Verbose = c.Verbose
	if c.RateLimit != 0 {
		cfg.RateLimit = c.RateLimit
	}
	if c.AutoplayDuration != 0 {
		cfg.AutoplayDuration = c.AutoplayDuration
	}
	if c.TickInterval != 0 {
		cfg.TickInterval = c.TickInterval
	}
	if c.SessionTTL != 0 {
		cfg.SessionTTL = c.SessionTTL
	}
	if c.MaxUploadBytes != 0 {
		cfg.MaxUploadBytes = c.MaxUploadBytes
	}
	return cfg
}
