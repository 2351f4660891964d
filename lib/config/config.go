// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/aocfs/lib/archive"
	"github.com/bureau-foundation/aocfs/lib/calendar"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "AOCFS_CONFIG"

// SessionPrompt as archive.session_file reads the session token from
// the terminal instead of a file.
const SessionPrompt = "-"

// Config is the complete aocfs configuration.
type Config struct {
	// Archive configures the remote puzzle archive and credentials.
	Archive ArchiveConfig `yaml:"archive" toml:"archive" json:"archive"`

	// Cache configures the local input cache.
	Cache CacheConfig `yaml:"cache" toml:"cache" json:"cache"`

	// Calendar configures the release schedule.
	Calendar CalendarConfig `yaml:"calendar" toml:"calendar" json:"calendar"`

	// Mount configures the FUSE mount.
	Mount MountConfig `yaml:"mount" toml:"mount" json:"mount"`
}

// ArchiveConfig configures the remote archive.
type ArchiveConfig struct {
	// BaseURL is the archive root.
	// Default: https://adventofcode.com
	BaseURL string `yaml:"base_url" toml:"base_url" json:"base_url"`

	// Username scopes the cache directory, so several accounts can
	// share one cache root. Optional.
	Username string `yaml:"username" toml:"username" json:"username"`

	// Session is the session cookie value, inline. Exactly one of
	// Session and SessionFile must be set.
	Session string `yaml:"session" toml:"session" json:"session"`

	// SessionFile is a file holding the session cookie value, or "-"
	// to prompt for it on the terminal.
	SessionFile string `yaml:"session_file" toml:"session_file" json:"session_file"`

	// AgeIdentityFile, when set, marks SessionFile as age-encrypted
	// and names the identity file that decrypts it.
	AgeIdentityFile string `yaml:"age_identity_file" toml:"age_identity_file" json:"age_identity_file"`

	// Timeout bounds one fetch, as a Go duration.
	// Default: 30s
	Timeout string `yaml:"timeout" toml:"timeout" json:"timeout"`

	// UserAgent overrides the User-Agent sent to the archive.
	UserAgent string `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
}

// CacheConfig configures the input cache.
type CacheConfig struct {
	// Dir is the cache root.
	// Default: <user cache dir>/aocfs
	Dir string `yaml:"dir" toml:"dir" json:"dir"`
}

// CalendarConfig configures the release schedule.
type CalendarConfig struct {
	// FirstYear is the archive's first year.
	// Default: 2015
	FirstYear int `yaml:"first_year" toml:"first_year" json:"first_year"`

	// ReleaseMonth is the month puzzles release in, 1 through 12.
	// Default: 12
	ReleaseMonth int `yaml:"release_month" toml:"release_month" json:"release_month"`

	// UTCOffset is the fixed offset releases are scheduled in.
	// Default: -05:00
	UTCOffset string `yaml:"utc_offset" toml:"utc_offset" json:"utc_offset"`
}

// MountConfig configures the FUSE mount. The matching command-line
// flags can only turn these on.
type MountConfig struct {
	AllowOther  bool `yaml:"allow_other" toml:"allow_other" json:"allow_other"`
	AllowRoot   bool `yaml:"allow_root" toml:"allow_root" json:"allow_root"`
	AutoUnmount bool `yaml:"auto_unmount" toml:"auto_unmount" json:"auto_unmount"`
	Debug       bool `yaml:"debug" toml:"debug" json:"debug"`
}

// Default returns the default configuration. The file is loaded over
// it, so unset keys keep these values.
func Default() *Config {
	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		cacheRoot = filepath.Join(os.TempDir(), "aocfs-cache")
	}
	rules := calendar.DefaultRules()

	return &Config{
		Archive: ArchiveConfig{
			BaseURL: archive.DefaultBaseURL,
			Timeout: archive.DefaultTimeout.String(),
		},
		Cache: CacheConfig{
			Dir: filepath.Join(cacheRoot, "aocfs"),
		},
		Calendar: CalendarConfig{
			FirstYear:    rules.FirstYear,
			ReleaseMonth: int(rules.ReleaseMonth),
			UTCOffset:    rules.Offset,
		},
	}
}

// Load loads configuration from the file named by AOCFS_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your aocfs config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults, expands
// variables, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.decode(path, data); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// decode merges data into c, choosing the format by path's extension.
func (c *Config) decode(path string, data []byte) error {
	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil

	case ".toml":
		meta, err := toml.Decode(string(data), c)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, key := range undecoded {
				keys[i] = key.String()
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
		return nil

	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil

	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .toml, or .jsonc)", extension)
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in string values.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Archive.BaseURL = expandVars(c.Archive.BaseURL, vars)
	c.Archive.Session = expandVars(c.Archive.Session, vars)
	c.Archive.SessionFile = expandVars(c.Archive.SessionFile, vars)
	c.Archive.AgeIdentityFile = expandVars(c.Archive.AgeIdentityFile, vars)
	c.Cache.Dir = expandVars(c.Cache.Dir, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if baseURL, err := url.Parse(c.Archive.BaseURL); err != nil || (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		errs = append(errs, fmt.Errorf("archive.base_url %q must be an http or https URL", c.Archive.BaseURL))
	}

	switch {
	case c.Archive.Session == "" && c.Archive.SessionFile == "":
		errs = append(errs, fmt.Errorf("one of archive.session or archive.session_file is required"))
	case c.Archive.Session != "" && c.Archive.SessionFile != "":
		errs = append(errs, fmt.Errorf("archive.session and archive.session_file are mutually exclusive"))
	}
	if c.Archive.AgeIdentityFile != "" && (c.Archive.SessionFile == "" || c.Archive.SessionFile == SessionPrompt) {
		errs = append(errs, fmt.Errorf("archive.age_identity_file requires archive.session_file to name an encrypted file"))
	}

	if username := c.Archive.Username; username != "" {
		if strings.ContainsRune(username, filepath.Separator) || username == "." || username == ".." {
			errs = append(errs, fmt.Errorf("archive.username %q must be a plain name", username))
		}
	}

	if timeout, err := time.ParseDuration(c.Archive.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("archive.timeout: %w", err))
	} else if timeout <= 0 {
		errs = append(errs, fmt.Errorf("archive.timeout must be positive, got %s", c.Archive.Timeout))
	}

	if c.Cache.Dir == "" {
		errs = append(errs, fmt.Errorf("cache.dir is required"))
	}

	if err := c.Rules().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("calendar: %w", err))
	}

	if c.Mount.AllowOther && c.Mount.AllowRoot {
		errs = append(errs, fmt.Errorf("mount.allow_other and mount.allow_root are mutually exclusive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Timeout returns archive.timeout as a duration. Only meaningful after
// Validate succeeds.
func (c *Config) Timeout() time.Duration {
	timeout, err := time.ParseDuration(c.Archive.Timeout)
	if err != nil {
		return archive.DefaultTimeout
	}
	return timeout
}

// Rules returns the calendar rules.
func (c *Config) Rules() calendar.Rules {
	return calendar.Rules{
		FirstYear:    c.Calendar.FirstYear,
		ReleaseMonth: time.Month(c.Calendar.ReleaseMonth),
		Offset:       c.Calendar.UTCOffset,
	}
}

// CacheDir returns the cache root, scoped by archive.username when one
// is set.
func (c *Config) CacheDir() string {
	if c.Archive.Username == "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.Cache.Dir, c.Archive.Username)
}
