package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a YAML string like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// Dependency describes a single probed dependency.
type Dependency struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Target   string   `yaml:"target"`
	Interval Duration `yaml:"interval"`
	Timeout  Duration `yaml:"timeout"`
}

// WebhookConfig holds alert webhook settings.
type WebhookConfig struct {
	URL      string   `yaml:"url"`
	Cooldown Duration `yaml:"cooldown"`
}

// AlertsConfig holds all alert configuration.
type AlertsConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Config is the root application configuration.
type Config struct {
	Dependencies []Dependency  `yaml:"dependencies"`
	Alerts       AlertsConfig  `yaml:"alerts"`
	Server       ServerConfig  `yaml:"server"`
	Storage      StorageConfig `yaml:"storage"`
}

var validKinds = map[string]bool{
	"binary":    true,
	"python":    true,
	"library":   true,
	"pkgconfig": true,
	"docker":    true,
}

// Load reads, parses, and validates the config file at path.
// An optional .env file plus ENVPROBE_ADDR / ENVPROBE_DB override
// the server address and storage path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Unmarshal into a raw intermediate to detect YAML parse errors vs duration errors.
	type rawDependency struct {
		Name     string `yaml:"name"`
		Kind     string `yaml:"kind"`
		Target   string `yaml:"target"`
		Interval string `yaml:"interval"`
		Timeout  string `yaml:"timeout"`
	}
	type rawConfig struct {
		Dependencies []rawDependency `yaml:"dependencies"`
		Alerts       AlertsConfig    `yaml:"alerts"`
		Server       ServerConfig    `yaml:"server"`
		Storage      StorageConfig   `yaml:"storage"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Environment overrides. The .env file is optional.
	_ = godotenv.Load()
	if v := os.Getenv("ENVPROBE_ADDR"); v != "" {
		raw.Server.Address = v
	}
	if v := os.Getenv("ENVPROBE_DB"); v != "" {
		raw.Storage.Path = v
	}

	// Apply defaults.
	if raw.Server.Address == "" {
		raw.Server.Address = ":8080"
	}
	if raw.Storage.Path == "" {
		raw.Storage.Path = "envprobe.db"
	}

	if len(raw.Dependencies) == 0 {
		return nil, fmt.Errorf("at least one dependency must be configured")
	}

	cfg := &Config{
		Alerts:  raw.Alerts,
		Server:  raw.Server,
		Storage: raw.Storage,
	}

	names := make(map[string]bool, len(raw.Dependencies))
	for i, rd := range raw.Dependencies {
		if rd.Name == "" {
			return nil, fmt.Errorf("dependency[%d]: name is required", i)
		}
		if names[rd.Name] {
			return nil, fmt.Errorf("duplicate dependency name %q", rd.Name)
		}
		names[rd.Name] = true

		if !validKinds[rd.Kind] {
			return nil, fmt.Errorf("dependency %q: invalid kind %q (must be binary, python, library, pkgconfig, or docker)", rd.Name, rd.Kind)
		}

		dep := Dependency{
			Name:   rd.Name,
			Kind:   rd.Kind,
			Target: rd.Target,
		}

		// The target defaults to the dependency name; the docker probe
		// resolves its own socket path when no target is given.
		if dep.Target == "" && rd.Kind != "docker" {
			dep.Target = rd.Name
		}

		// Parse interval with default.
		if rd.Interval == "" {
			dep.Interval = Duration{5 * time.Minute}
		} else {
			d, err := time.ParseDuration(rd.Interval)
			if err != nil {
				return nil, fmt.Errorf("dependency %q: invalid interval %q: %w", rd.Name, rd.Interval, err)
			}
			dep.Interval = Duration{d}
		}

		// Parse timeout with default.
		if rd.Timeout == "" {
			dep.Timeout = Duration{10 * time.Second}
		} else {
			d, err := time.ParseDuration(rd.Timeout)
			if err != nil {
				return nil, fmt.Errorf("dependency %q: invalid timeout %q: %w", rd.Name, rd.Timeout, err)
			}
			dep.Timeout = Duration{d}
		}

		cfg.Dependencies = append(cfg.Dependencies, dep)
	}

	return cfg, nil
}
