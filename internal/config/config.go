// Package config loads run settings from a .env file, an optional YAML file
// and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"lightcheck/internal/interact"
)

// Environment keys.
const (
	KeyBaseURL           = "SF_BASE_URL"
	KeyUsername          = "SF_USERNAME"
	KeyPassword          = "SF_PASSWORD"
	KeyLoginURL          = "SF_LOGIN_URL"
	KeyPageLoadTimeout   = "SF_PAGE_LOAD_TIMEOUT"
	KeyToastTimeout      = "SF_TOAST_TIMEOUT"
	KeyModalTimeout      = "SF_MODAL_TIMEOUT"
	KeySpinnerTimeout    = "SF_SPINNER_TIMEOUT"
	KeyProbeTimeout      = "SF_PROBE_TIMEOUT"
	KeyNavigationTimeout = "SF_NAVIGATION_TIMEOUT"
	KeyActionTimeout     = "SF_ACTION_TIMEOUT"
	KeyDriver            = "SF_DRIVER"
	KeyHeadless          = "SF_HEADLESS"
	KeyOutputDir         = "SF_OUTPUT_DIR"
	KeyCatalog           = "SF_CATALOG"
	KeyHistoryDB         = "SF_HISTORY_DB"
	KeyRPURL             = "SF_RP_URL"
	KeyRPProject         = "SF_RP_PROJECT"
	KeyRPToken           = "SF_RP_TOKEN"
	KeyRPTokenFile       = "SF_RP_TOKEN_FILE"
	KeyRPLaunch          = "SF_RP_LAUNCH"
	KeyLogLevel          = "SF_LOG_LEVEL"
	KeyLogFormat         = "SF_LOG_FORMAT"
)

const (
	DefaultLoginURL  = "https://login.salesforce.com"
	DefaultDriver    = "chromedp"
	DefaultOutputDir = "test-results"
	DefaultRPLaunch  = "lightcheck"
)

// RequiredKeys must be set for anything to run.
var RequiredKeys = []string{KeyBaseURL}

// CredentialKeys must be set for authenticated scenarios.
var CredentialKeys = []string{KeyUsername, KeyPassword}

var ErrMissingBaseURL = errors.New("config: " + KeyBaseURL + " is required")

// Config is the resolved run configuration.
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	LoginURL  string            `yaml:"login_url"`
	Driver    string            `yaml:"driver"`
	Headless  bool              `yaml:"headless"`
	OutputDir string            `yaml:"output_dir"`
	Catalog   string            `yaml:"catalog"`
	HistoryDB string            `yaml:"history_db"`
	LogLevel  string            `yaml:"log_level"`
	LogFormat string            `yaml:"log_format"`
	Timeouts  interact.Timeouts `yaml:"timeouts"`

	ReportPortal ReportPortal `yaml:"reportportal"`
}

// ReportPortal says where finished runs are published. Publishing is off
// while URL is empty.
type ReportPortal struct {
	URL       string `yaml:"url"`
	Project   string `yaml:"project"`
	Token     string `yaml:"token"`
	TokenFile string `yaml:"token_file"`
	Launch    string `yaml:"launch"`
}

// Enabled reports whether a Report Portal instance is configured.
func (r ReportPortal) Enabled() bool { return r.URL != "" }

// Validate fails when publishing is enabled but incomplete.
func (r ReportPortal) Validate() error {
	var missing []string
	if r.Project == "" {
		missing = append(missing, KeyRPProject)
	}
	if r.Token == "" && r.TokenFile == "" {
		missing = append(missing, KeyRPToken+" or "+KeyRPTokenFile)
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: %s is set but %s is not", KeyRPURL, strings.Join(missing, ", "))
	}
	return nil
}

// Options says where to look. Empty paths are skipped; a missing .env file
// is not an error, a missing YAML file is.
type Options struct {
	EnvFile   string
	File      string
	LookupEnv func(string) (string, bool)
}

// Defaults returns the configuration before any source is applied.
func Defaults() *Config {
	return &Config{
		LoginURL:  DefaultLoginURL,
		Driver:    DefaultDriver,
		Headless:  true,
		OutputDir: DefaultOutputDir,
		LogLevel:  "info",
		LogFormat: "text",
		Timeouts:  interact.DefaultTimeouts(),

		ReportPortal: ReportPortal{Launch: DefaultRPLaunch},
	}
}

// Load resolves the configuration and validates it.
func Load(opts Options) (*Config, error) {
	c, err := Resolve(opts)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve merges every source without validating, for commands such as
// list that do not talk to an org.
func Resolve(opts Options) (*Config, error) {
	c := Defaults()
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	dotenv := map[string]string{}
	if opts.EnvFile != "" {
		m, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", opts.EnvFile, err)
		}
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := c.applyEnv(get); err != nil {
		return nil, err
	}
	c.Timeouts = c.Timeouts.WithDefaults()
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c, nil
}

func (c *Config) applyEnv(get func(string) (string, bool)) error {
	strs := map[string]*string{
		KeyBaseURL:   &c.BaseURL,
		KeyUsername:  &c.Username,
		KeyPassword:  &c.Password,
		KeyLoginURL:  &c.LoginURL,
		KeyDriver:    &c.Driver,
		KeyOutputDir: &c.OutputDir,
		KeyCatalog:   &c.Catalog,
		KeyHistoryDB: &c.HistoryDB,
		KeyLogLevel:  &c.LogLevel,
		KeyLogFormat: &c.LogFormat,

		KeyRPURL:       &c.ReportPortal.URL,
		KeyRPProject:   &c.ReportPortal.Project,
		KeyRPToken:     &c.ReportPortal.Token,
		KeyRPTokenFile: &c.ReportPortal.TokenFile,
		KeyRPLaunch:    &c.ReportPortal.Launch,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := get(KeyHeadless); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", KeyHeadless, err)
		}
		c.Headless = b
	}
	durs := map[string]*time.Duration{
		KeyPageLoadTimeout:   &c.Timeouts.PageLoad,
		KeyToastTimeout:      &c.Timeouts.Toast,
		KeyModalTimeout:      &c.Timeouts.Modal,
		KeySpinnerTimeout:    &c.Timeouts.Spinner,
		KeyProbeTimeout:      &c.Timeouts.Probe,
		KeyNavigationTimeout: &c.Timeouts.Navigation,
		KeyActionTimeout:     &c.Timeouts.Action,
	}
	for key, dst := range durs {
		v, ok := get(key)
		if !ok || v == "" {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// ParseDuration reads a bare integer as milliseconds and anything else as a
// Go duration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(n) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// Missing lists the required keys that resolved empty.
func (c *Config) Missing() []string {
	var out []string
	if c.BaseURL == "" {
		out = append(out, KeyBaseURL)
	}
	return out
}

// Validate fails when a required key is unset.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("config: %s %q is not an http(s) url", KeyBaseURL, c.BaseURL)
	}
	return nil
}

// Credentials returns the login pair, or an *interact.AuthenticationError
// naming whichever keys are unset.
func (c *Config) Credentials() (username, password string, err error) {
	var missing []string
	if c.Username == "" {
		missing = append(missing, KeyUsername)
	}
	if c.Password == "" {
		missing = append(missing, KeyPassword)
	}
	if len(missing) > 0 {
		return "", "", &interact.AuthenticationError{
			Reason:  "credentials not configured",
			Missing: missing,
			State:   interact.AuthenticationFailed,
		}
	}
	return c.Username, c.Password, nil
}
