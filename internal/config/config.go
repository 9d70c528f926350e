// Package config loads bnp-ledger settings from flags, BNPLEDGER_*
// environment variables (a .env file included), an optional YAML file and
// built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/insightdelivered/bnp-ledger/internal/logging"
	"github.com/insightdelivered/bnp-ledger/internal/models"
	"github.com/insightdelivered/bnp-ledger/internal/rules"
)

const (
	EnvPrefix = "BNPLEDGER"
	FileName  = "bnp-ledger"

	ExtractorLocal  = "local"
	ExtractorRemote = "remote"
)

type Log struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
	// Formatting switches the log file from logfmt to styled text.
	Formatting bool `mapstructure:"formatting"`
}

type Cache struct {
	Enabled bool `mapstructure:"enabled"`
	// Dir empty stores entries next to each statement.
	Dir string `mapstructure:"dir"`
}

type Extractor struct {
	Kind         string        `mapstructure:"kind"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full set of settings.
type Config struct {
	Mode   string `mapstructure:"mode"`
	Output string `mapstructure:"output"`
	// Budget 0 computes the budget from the statement period.
	Budget         float64   `mapstructure:"budget"`
	RulesFile      string    `mapstructure:"rules_file"`
	AskRules       bool      `mapstructure:"ask_rules"`
	Strict         bool      `mapstructure:"strict"`
	Verbosity      int       `mapstructure:"verbosity"`
	AccountID      string    `mapstructure:"account_id"`
	IncludeSavings bool      `mapstructure:"include_savings"`
	CSV            bool      `mapstructure:"csv"`
	Log            Log       `mapstructure:"log"`
	Cache          Cache     `mapstructure:"cache"`
	Extractor      Extractor `mapstructure:"extractor"`
	Server         Server    `mapstructure:"server"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Config {
	return Config{
		Mode:      string(models.FormatText),
		Output:    "comptes.xlsx",
		Verbosity: logging.Warnings,
		Log:       Log{Dir: "logs"},
		Cache:     Cache{Enabled: true},
		Extractor: Extractor{
			Kind:         ExtractorLocal,
			BaseURL:      "https://api.cloud.llamaindex.ai",
			PollInterval: 2 * time.Second,
			Timeout:      5 * time.Minute,
		},
		Server: Server{Addr: ":8080"},
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"mode":            "mode",
	"output":          "output",
	"budget":          "budget",
	"rules":           "rules_file",
	"ask-rules":       "ask_rules",
	"strict":          "strict",
	"verbose":         "verbosity",
	"account":         "account_id",
	"include-savings": "include_savings",
	"csv":             "csv",
	"log":             "log.enabled",
	"log-dir":         "log.dir",
	"log-format":      "log.formatting",
	"cache":           "cache.enabled",
	"cache-dir":       "cache.dir",
	"extractor":       "extractor.kind",
	"addr":            "server.addr",
}

// Load resolves the configuration. file may be empty, in which case
// bnp-ledger.yaml is looked up in the working directory and in
// $HOME/.config/bnp-ledger. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.RulesFile == "" {
		cfg.RulesFile = rules.DefaultPath(cfg.AccountID)
	}
	return cfg, cfg.Validate()
}

// setDefaults registers every key so environment variables are picked up
// by Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("mode", d.Mode)
	v.SetDefault("output", d.Output)
	v.SetDefault("budget", d.Budget)
	v.SetDefault("rules_file", d.RulesFile)
	v.SetDefault("ask_rules", d.AskRules)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("verbosity", d.Verbosity)
	v.SetDefault("account_id", d.AccountID)
	v.SetDefault("include_savings", d.IncludeSavings)
	v.SetDefault("csv", d.CSV)
	v.SetDefault("log.enabled", d.Log.Enabled)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.formatting", d.Log.Formatting)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("extractor.kind", d.Extractor.Kind)
	v.SetDefault("extractor.base_url", d.Extractor.BaseURL)
	v.SetDefault("extractor.api_key", d.Extractor.APIKey)
	v.SetDefault("extractor.poll_interval", d.Extractor.PollInterval)
	v.SetDefault("extractor.timeout", d.Extractor.Timeout)
	v.SetDefault("server.addr", d.Server.Addr)
}

// Validate checks values that cannot be expressed by types.
func (c Config) Validate() error {
	if _, ok := models.ParseFormat(c.Mode); !ok {
		return fmt.Errorf("unknown mode %q, want text or markdown", c.Mode)
	}
	if c.Verbosity < logging.Silent || c.Verbosity > logging.Debug {
		return fmt.Errorf("verbosity must be between %d and %d, got %d", logging.Silent, logging.Debug, c.Verbosity)
	}
	if c.Budget < 0 {
		return fmt.Errorf("budget must not be negative, got %v", c.Budget)
	}
	switch c.Extractor.Kind {
	case ExtractorLocal:
		if c.Format() == models.FormatMarkdown {
			return fmt.Errorf("markdown mode needs the %s extractor", ExtractorRemote)
		}
	case ExtractorRemote:
		if c.Extractor.APIKey == "" {
			return fmt.Errorf("the %s extractor needs an API key (%s_EXTRACTOR_API_KEY)", ExtractorRemote, EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown extractor %q", c.Extractor.Kind)
	}
	return nil
}

// Format returns the page format selected by Mode.
func (c Config) Format() models.Format {
	f, _ := models.ParseFormat(c.Mode)
	return f
}

// BudgetAmount returns the budget to apply, nil for the automatic one.
func (c Config) BudgetAmount() *float64 {
	if c.Budget == 0 {
		return nil
	}
	b := c.Budget
	return &b
}

// LogOptions builds the logger settings for a run on input.
func (c Config) LogOptions(input string, now time.Time) logging.Options {
	opts := logging.Options{Verbosity: c.Verbosity, Formatting: c.Log.Formatting}
	if c.Log.Enabled {
		opts.File = logging.FileName(c.Log.Dir, input, now)
	}
	return opts
}
