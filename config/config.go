package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Keys understood by the harness. Each one is read from the environment
// variable of the same name in upper case, or from a .env file.
const (
	KeyBaseURL                = "base_url"
	KeyViewSpeed              = "view_speed"
	KeyVideoDir               = "video_dir"
	KeySaveAllTraces          = "save_all_traces"
	KeyTraceDir               = "trace_dir"
	KeyPlaywrightPreinstalled = "playwright_preinstalled"
	KeyAxeScript              = "axe_script"
	KeyLocale                 = "locale"
	KeyLogLevel               = "log_level"
	KeyLogFormat              = "log_format"
	KeyLogFile                = "log_file"
)

const (
	DefaultTraceDir  = "traces"
	DefaultLocale    = "en-AU"
	DefaultAxeScript = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"
)

var keys = []string{
	KeyBaseURL, KeyViewSpeed, KeyVideoDir, KeySaveAllTraces, KeyTraceDir,
	KeyPlaywrightPreinstalled, KeyAxeScript, KeyLocale,
	KeyLogLevel, KeyLogFormat, KeyLogFile,
}

var (
	loaded  *Config
	loadErr error
	once    sync.Once
)

// Config holds the process-wide harness configuration.
type Config struct {
	// BaseURL overrides every application's default base URL when set.
	BaseURL string `yaml:"base_url"`
	// ViewSpeed is the artificial per-action delay in milliseconds. A non-nil
	// value also makes the browser visible.
	ViewSpeed              *float64 `yaml:"view_speed,omitempty"`
	VideoDir               string   `yaml:"video_dir"`
	SaveAllTraces          bool     `yaml:"save_all_traces"`
	TraceDir               string   `yaml:"trace_dir"`
	PlaywrightPreinstalled bool     `yaml:"playwright_preinstalled"`
	AxeScript              string   `yaml:"axe_script"`
	Locale                 string   `yaml:"locale"`
	Logging                Logging  `yaml:"logging"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Headless reports whether the browser should run without a window.
func (c *Config) Headless() bool {
	return c.ViewSpeed == nil
}

// SlowMo returns the per-action delay in milliseconds, zero when headless.
func (c *Config) SlowMo() float64 {
	if c.ViewSpeed == nil {
		return 0
	}
	return *c.ViewSpeed
}

// Validate checks values that would otherwise fail late inside the browser.
func (c *Config) Validate() error {
	if c.ViewSpeed != nil && *c.ViewSpeed < 0 {
		return fmt.Errorf("VIEW_SPEED must not be negative, got %v", *c.ViewSpeed)
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid BASE_URL %q: %w", c.BaseURL, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid BASE_URL %q: scheme and host are required", c.BaseURL)
		}
	}
	if c.TraceDir == "" {
		return errors.New("TRACE_DIR must not be empty")
	}
	return nil
}

// New returns a viper instance with the harness defaults and environment
// bindings in place. It does not read any file.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyTraceDir, DefaultTraceDir)
	v.SetDefault(KeyAxeScript, DefaultAxeScript)
	v.SetDefault(KeyLocale, DefaultLocale)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	for _, k := range keys {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}
	return v
}

// Load reads the configuration once per process. Environment variables take
// precedence over a .env file in the working directory.
func Load() (*Config, error) {
	once.Do(func() {
		v := New()
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				loadErr = fmt.Errorf("failed to read .env: %w", err)
				return
			}
		}
		loaded, loadErr = FromViper(v)
	})
	return loaded, loadErr
}

// MustLoad loads configuration and panics on error
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load harness configuration: %v", err))
	}
	return cfg
}

// FromViper builds a validated Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		BaseURL:                strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		VideoDir:               v.GetString(KeyVideoDir),
		SaveAllTraces:          v.GetBool(KeySaveAllTraces),
		TraceDir:               v.GetString(KeyTraceDir),
		PlaywrightPreinstalled: v.GetBool(KeyPlaywrightPreinstalled),
		AxeScript:              v.GetString(KeyAxeScript),
		Locale:                 v.GetString(KeyLocale),
		Logging: Logging{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
			File:   v.GetString(KeyLogFile),
		},
	}
	if raw := strings.TrimSpace(v.GetString(KeyViewSpeed)); raw != "" {
		speed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid VIEW_SPEED %q: %w", raw, err)
		}
		cfg.ViewSpeed = &speed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		TraceDir:  DefaultTraceDir,
		AxeScript: DefaultAxeScript,
		Locale:    DefaultLocale,
		Logging:   Logging{Level: "info", Format: "console"},
	}
}
