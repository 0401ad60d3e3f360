// Package config loads and manages the gsconfig CLI configuration file
// stored at ~/.gsconfig/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultConfigDir is the directory under the user's home for CLI state.
const DefaultConfigDir = ".gsconfig"

// DefaultConfigFile is the config file name within the config directory.
const DefaultConfigFile = "config.yaml"

// DefaultProfile is the profile used when nothing selects another.
const DefaultProfile = "local"

// Profile describes one GeoServer the CLI can talk to.
type Profile struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`
}

// Config represents the contents of ~/.gsconfig/config.yaml.
type Config struct {
	Current  string             `yaml:"current"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Env holds the GSCONFIG_* overrides.
type Env struct {
	Config   string `envconfig:"CONFIG"`
	Profile  string `envconfig:"PROFILE"`
	URL      string `envconfig:"URL"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

// ReadEnv reads the GSCONFIG_* environment variables.
func ReadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("gsconfig", &env); err != nil {
		return Env{}, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// Path returns the config file location: $GSCONFIG_CONFIG when set,
// otherwise ~/.gsconfig/config.yaml.
func Path() (string, error) {
	env, err := ReadEnv()
	if err != nil {
		return "", err
	}
	if env.Config != "" {
		p, err := homedir.Expand(env.Config)
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", env.Config, err)
		}
		return p, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads the config from its default location.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the default
// config with a single "local" profile.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	if cfg.Current == "" {
		cfg.Current = DefaultProfile
	}
	return &cfg, nil
}

// Save writes the config to its default location.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to path. The file holds passwords, so it is
// only readable by the owner.
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetProfile adds or replaces a profile.
func (c *Config) SetProfile(name string, p Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	c.Profiles[name] = p
}

// Use makes name the current profile.
func (c *Config) Use(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	c.Current = name
	return nil
}

// Resolve picks a profile and applies the environment on top of it. The
// profile is, in order: name, $GSCONFIG_PROFILE, the current profile.
// $GSCONFIG_URL alone is enough when no profile matches.
func (c *Config) Resolve(name string, env Env) (Profile, error) {
	if name == "" {
		name = env.Profile
	}
	if name == "" {
		name = c.Current
	}
	if name == "" {
		name = DefaultProfile
	}

	p, ok := c.Profiles[name]
	if !ok && env.URL == "" {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	if env.URL != "" {
		p.URL = env.URL
	}
	if env.Username != "" {
		p.Username = env.Username
	}
	if env.Password != "" {
		p.Password = env.Password
	}
	if p.URL == "" {
		return Profile{}, fmt.Errorf("profile %q has no url", name)
	}
	return p, nil
}

func defaultConfig() *Config {
	return &Config{
		Current: DefaultProfile,
		Profiles: map[string]Profile{
			DefaultProfile: {
				URL:      "http://localhost:8080/geoserver/rest",
				Username: "admin",
				Password: "geoserver",
			},
		},
	}
}
