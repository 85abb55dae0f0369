package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the hpctl profile store, persisted at ~/.hookpipe/config.yaml.
type Config struct {
	CurrentProfile string              `yaml:"current_profile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
	path           string
}

type Profile struct {
	ServerURL   string `yaml:"server_url"`
	DatabaseURL string `yaml:"database_url"`
	Token       string `yaml:"token"`
}

func DefaultConfig() *Config {
	return &Config{
		CurrentProfile: "default",
		Profiles: map[string]*Profile{
			"default": {
				ServerURL: "http://localhost:8080",
			},
		},
	}
}

func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfgFile = filepath.Join(home, ".hookpipe", "config.yaml")
	}

	cfg := DefaultConfig()
	cfg.path = cfgFile

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if url := os.Getenv("HOOKPIPE_SERVER_URL"); url != "" {
		cfg.profile().ServerURL = url
	}
	if url := os.Getenv("HOOKPIPE_DATABASE_URL"); url != "" {
		cfg.profile().DatabaseURL = url
	}

	return cfg, nil
}

func (c *Config) Save() error {
	if c.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(home, ".hookpipe", "config.yaml")
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

func (c *Config) GetProfile(name string) (*Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}

	return profile, nil
}

func (c *Config) SaveProfile(name string, profile *Profile) error {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}

	c.Profiles[name] = profile
	c.CurrentProfile = name
	return c.Save()
}

// profile returns the current profile, creating it when absent.
func (c *Config) profile() *Profile {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}
	p, ok := c.Profiles[c.CurrentProfile]
	if !ok {
		p = &Profile{}
		c.Profiles[c.CurrentProfile] = p
	}
	return p
}
