// Package config loads the riskpulse configuration file and applies
// environment overrides.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DirName is the config directory under the user's home.
	DirName = ".riskpulse"

	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	envPrefix = "RISKPULSE_"

	defaultHorizon = 24
	defaultSeed    = 123
	defaultPort    = 8080
)

// Config represents app config object.
type Config struct {
	Debug        bool   `yaml:"debug"`
	LogLevel     string `yaml:"log_level"`
	FeaturesFile string `yaml:"features_file,omitempty"`
	// HorizonMonths is the default single-subject horizon.
	HorizonMonths int `yaml:"horizon_months"`
	// Seed drives batch window jitter and synthetic cohorts.
	Seed        uint64 `yaml:"seed"`
	DBPath      string `yaml:"db_path,omitempty"`
	PostgresURL string `yaml:"postgres_url,omitempty"`
	Server      Server `yaml:"server"`
	Auth        Auth   `yaml:"auth"`
}

// Server configures the local HTTP server.
type Server struct {
	Port int `yaml:"port"`
}

// Auth configures basic auth on the API.
type Auth struct {
	Disabled bool `yaml:"disabled"`
	// Users maps a username to its "sha256:<hex>" credential hash.
	Users map[string]string `yaml:"users,omitempty"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		HorizonMonths: defaultHorizon,
		Seed:          defaultSeed,
		Server:        Server{Port: defaultPort},
	}
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		err := os.MkdirAll(dirPath, dirMode)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	return ReadFile(path)
}

// ReadFile reads config from path. Missing fields keep their defaults.
func ReadFile(path string) (*Config, error) {
	j, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening config file: %s", path)
	}
	defer j.Close()

	b, err := io.ReadAll(j)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.HorizonMonths < 1 {
		return errors.Errorf("horizon_months must be at least 1, got %d", c.HorizonMonths)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.Errorf("server.port out of range: %d", c.Server.Port)
	}
	for u, h := range c.Auth.Users {
		if !strings.HasPrefix(h, "sha256:") {
			return errors.Errorf("auth user %s: hash must start with sha256:", u)
		}
	}
	return nil
}

// LoadEnv loads .env files (missing files are ignored) and applies
// RISKPULSE_* overrides to c.
func (c *Config) LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load env file: %s", f)
		}
	}

	if v, ok := lookup("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sDEBUG", envPrefix)
		}
		c.Debug = b
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("FEATURES"); ok {
		c.FeaturesFile = v
	}
	if v, ok := lookup("DB"); ok {
		c.DBPath = v
	}
	if v, ok := lookup("POSTGRES_URL"); ok {
		c.PostgresURL = v
	}
	if v, ok := lookup("PORT"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sPORT", envPrefix)
		}
		c.Server.Port = p
	}
	if v, ok := lookup("AUTH_DISABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %sAUTH_DISABLED", envPrefix)
		}
		c.Auth.Disabled = b
	}
	return c.Validate()
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		err := os.Mkdir(dir, dirMode)
		if err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
