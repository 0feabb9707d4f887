// Package config loads nestbox settings from defaults, a YAML file and the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "nestbox.yaml"

// Config holds nestbox configuration
type Config struct {
	Organization string        `yaml:"organization"`
	Device       string        `yaml:"device"`
	StaleDays    int           `yaml:"stale_days"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	// GraphQLURL and RESTURL point at a GitHub Enterprise instance when set.
	GraphQLURL string `yaml:"graphql_url"`
	RESTURL    string `yaml:"rest_url"`
	FontPath   string `yaml:"font_path"`
	ImageDir   string `yaml:"image_dir"`
	OutputPath string `yaml:"output_path"`
	LogLevel   string `yaml:"log_level"`

	// Token is never read from the YAML file.
	Token string `yaml:"-"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Organization: "wagtail",
		Device:       "epd4in2_V2",
		StaleDays:    30,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		ImageDir:     defaultImageDir(),
		OutputPath:   "frame.png",
		LogLevel:     "info",
	}
}

// defaultImageDir resolves the icon directory next to the installed binary.
func defaultImageDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "images"
	}
	return filepath.Join(filepath.Dir(exe), "images")
}

// Load loads configuration with the following precedence (highest first):
// environment (NESTBOX_* and GITHUB_TOKEN, optionally from a .env file),
// the YAML file at path, then Default. An empty path reads DefaultFile if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "failed to parse %s", path)
		}
	case explicit || !os.IsNotExist(err):
		return Config{}, errors.Wrapf(err, "failed to read %s", path)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Token = os.Getenv("GITHUB_TOKEN")

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("NESTBOX_ORGANIZATION", &c.Organization)
	setString("NESTBOX_DEVICE", &c.Device)
	setString("NESTBOX_GRAPHQL_URL", &c.GraphQLURL)
	setString("NESTBOX_REST_URL", &c.RESTURL)
	setString("NESTBOX_FONT_PATH", &c.FontPath)
	setString("NESTBOX_IMAGE_DIR", &c.ImageDir)
	setString("NESTBOX_OUTPUT_PATH", &c.OutputPath)
	setString("NESTBOX_LOG_LEVEL", &c.LogLevel)

	if v := os.Getenv("NESTBOX_STALE_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid NESTBOX_STALE_DAYS %q", v)
		}
		c.StaleDays = days
	}
	for key, dst := range map[string]*time.Duration{
		"NESTBOX_INTERVAL": &c.Interval,
		"NESTBOX_TIMEOUT":  &c.Timeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.Wrapf(err, "invalid %s %q", key, v)
			}
			*dst = d
		}
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Organization == "":
		return errors.New("organization must be set")
	case c.Device == "":
		return errors.New("device must be set")
	case c.StaleDays <= 0:
		return errors.Errorf("stale_days must be positive, got %d", c.StaleDays)
	case c.Interval <= 0:
		return errors.Errorf("interval must be positive, got %s", c.Interval)
	case c.Timeout <= 0:
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
