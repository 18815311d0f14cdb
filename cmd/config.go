package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rwscout/internal/model"
	"rwscout/internal/session"
)

// Config holds CLI configuration.
type Config struct {
	APIURL       string
	CatalogFile  string
	ProbeDelay   time.Duration
	HTTPTimeout  time.Duration
	PartySize    int
	LogLevel     string
	LogFormat    string
	LogFile      string
	MetricsAddr  string
	FailedPolicy model.FailedPolicy

	// ConfigDir holds config.yaml, ui prefs and the TUI log.
	ConfigDir string
	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string
}

// Config keys. Flags use the same names with dashes.
const (
	keyAPIURL       = "api_url"
	keyCatalogFile  = "catalog_file"
	keyProbeDelay   = "probe_delay"
	keyHTTPTimeout  = "http_timeout"
	keyPartySize    = "party_size"
	keyLogLevel     = "log_level"
	keyLogFormat    = "log_format"
	keyLogFile      = "log_file"
	keyMetricsAddr  = "metrics_addr"
	keyFailedPolicy = "failed_policy"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAPIURL, "")
	v.SetDefault(keyCatalogFile, "")
	v.SetDefault(keyProbeDelay, "60ms")
	v.SetDefault(keyHTTPTimeout, "10s")
	v.SetDefault(keyPartySize, session.DefaultPartySize)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "console")
	v.SetDefault(keyLogFile, "")
	v.SetDefault(keyMetricsAddr, "")
	v.SetDefault(keyFailedPolicy, "unchecked")
}

// addConfigFlags registers the persistent flags that override config keys.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("api-url", "", "restaurant week backend base URL (or RWSCOUT_API_URL)")
	flags.String("catalog-file", "", "read restaurants from a local JSON file instead of the backend")
	flags.Duration("probe-delay", 60*time.Millisecond, "pause between availability probes")
	flags.Duration("http-timeout", 10*time.Second, "timeout for each backend request")
	flags.Int("party-size", session.DefaultPartySize, "party size for availability checks")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")
	flags.String("log-file", "", "write logs to this file")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	flags.String("failed-policy", "unchecked", "where failed checks are listed: unchecked or separate")
}

// bindConfigFlags binds flags onto their config keys. Only flags that were set
// on the command line take precedence over file and environment values.
func bindConfigFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for _, key := range []string{
		keyAPIURL, keyCatalogFile, keyProbeDelay, keyHTTPTimeout, keyPartySize,
		keyLogLevel, keyLogFormat, keyLogFile, keyMetricsAddr, keyFailedPolicy,
	} {
		name := strings.ReplaceAll(key, "_", "-")
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		_ = v.BindPFlag(key, f)
	}
}

// defaultConfigDir returns ~/.rwscout.
func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rwscout"), nil
}

// loadDotEnv loads .env then .env.local. Variables already in the environment win.
func loadDotEnv() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// loadConfig reads configuration from, in rising precedence: defaults,
// config.yaml, RWSCOUT_* environment variables and flags bound on v.
// An explicit configFile must exist.
func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	loadDotEnv()
	setDefaults(v)

	v.SetEnvPrefix("RWSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	var configDir string
	if configFile != "" {
		v.SetConfigFile(configFile)
		configDir = filepath.Dir(configFile)
	} else {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg, err := configFromViper(v)
	if err != nil {
		return nil, err
	}
	cfg.ConfigDir = configDir
	cfg.ConfigFile = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigFile); err != nil {
		cfg.ConfigFile = ""
	}
	return cfg, nil
}

func configFromViper(v *viper.Viper) (*Config, error) {
	policy, ok := model.ParseFailedPolicy(v.GetString(keyFailedPolicy))
	if !ok {
		return nil, fmt.Errorf("invalid failed_policy %q (want unchecked or separate)", v.GetString(keyFailedPolicy))
	}

	cfg := &Config{
		APIURL:       strings.TrimSpace(v.GetString(keyAPIURL)),
		CatalogFile:  strings.TrimSpace(v.GetString(keyCatalogFile)),
		ProbeDelay:   v.GetDuration(keyProbeDelay),
		HTTPTimeout:  v.GetDuration(keyHTTPTimeout),
		PartySize:    v.GetInt(keyPartySize),
		LogLevel:     strings.ToLower(strings.TrimSpace(v.GetString(keyLogLevel))),
		LogFormat:    strings.ToLower(strings.TrimSpace(v.GetString(keyLogFormat))),
		LogFile:      strings.TrimSpace(v.GetString(keyLogFile)),
		MetricsAddr:  strings.TrimSpace(v.GetString(keyMetricsAddr)),
		FailedPolicy: policy,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.ProbeDelay < 0 {
		return fmt.Errorf("probe_delay must not be negative")
	}
	if cfg.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative")
	}
	if cfg.PartySize < 1 || cfg.PartySize > 20 {
		return fmt.Errorf("party_size must be between 1 and 20, got %d", cfg.PartySize)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", cfg.LogFormat)
	}
	return nil
}

// HasSource reports whether a catalog source is configured.
func (c *Config) HasSource() bool {
	return c.APIURL != "" || c.CatalogFile != ""
}

// writeConfigFile stores the catalog source settings in dir/config.yaml.
func writeConfigFile(dir, apiURL, catalogFile string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	path := filepath.Join(dir, "config.yaml")

	out := viper.New()
	out.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := out.ReadInConfig(); err != nil {
			return "", fmt.Errorf("error reading config: %w", err)
		}
	}
	if apiURL != "" {
		out.Set(keyAPIURL, apiURL)
	}
	if catalogFile != "" {
		out.Set(keyCatalogFile, catalogFile)
	}
	if err := out.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
