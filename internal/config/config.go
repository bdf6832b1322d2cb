// Package config holds the probe parameters. Values come from three layers,
// later layers winning: built-in defaults, an optional YAML defaults file,
// environment overrides for the credential pair, and finally command-line
// flags applied by the CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Params is the full parameter set of one invocation.
type Params struct {
	Host        string `yaml:"host" validate:"required"`
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	Username    string `yaml:"username" validate:"required"`
	Password    string `yaml:"password" validate:"required"`
	Domain      string `yaml:"domain"`
	UseHTTPS    bool   `yaml:"https"`
	InsecureTLS bool   `yaml:"insecure"`

	Group string `yaml:"group" validate:"required"`

	TimeoutSeconds int   `yaml:"timeout_seconds" validate:"min=1"`
	Retries        int   `yaml:"retries" validate:"min=0"`
	EventMinutes   int   `yaml:"event_minutes" validate:"min=1"`
	EventIDs       []int `yaml:"event_ids" validate:"omitempty,dive,min=1"`

	StateBackend string `yaml:"state_backend" validate:"oneof=file sqlite"`
	StateDir     string `yaml:"state_dir"`
	StateDB      string `yaml:"state_db"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in parameter values. Port, timeout, retry count,
// event window and event IDs mirror the documented plugin defaults.
func Default() Params {
	return Params{
		Port:           5985,
		TimeoutSeconds: 30,
		Retries:        2,
		EventMinutes:   5,
		StateBackend:   "file",
		StateDir:       "/tmp",
		LogLevel:       "warn",
	}
}

// LoadFile overlays values from a YAML defaults file onto p.
func (p *Params) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides the credential pair from the environment so secrets
// can stay out of argv and config files. Flags still win over these.
func (p *Params) ApplyEnv() {
	if v := os.Getenv("CHECK_CLUSTER_USERNAME"); v != "" {
		p.Username = v
	}
	if v := os.Getenv("CHECK_CLUSTER_PASSWORD"); v != "" {
		p.Password = v
	}
}

var validate = validator.New()

// Validate checks the assembled parameter set and reports every failing
// field in one message.
func (p *Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, e := range verrs {
			msgs[i] = fmt.Sprintf("%s: failed %s", strings.ToLower(e.Field()), e.Tag())
		}
		return fmt.Errorf("invalid parameters: %s", strings.Join(msgs, "; "))
	}
	if p.StateBackend == "sqlite" && p.StateDB == "" {
		return fmt.Errorf("invalid parameters: state_db is required with the sqlite backend")
	}
	return nil
}

// Timeout returns the per-connection and overall execution deadline.
func (p *Params) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}
