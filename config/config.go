package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the ledger CLI.
type Config struct {
	DBPath   string `mapstructure:"db"`
	Driver   string `mapstructure:"driver"`    // sqlite3 | sqlite
	LogLevel string `mapstructure:"log_level"` // debug | info | warn | error
	LogFile  string `mapstructure:"log_file"`  // empty means stderr
	Seed     bool   `mapstructure:"seed"`
}

// Defaults.
const (
	DefaultDBPath   = "bookstore.db"
	DefaultDriver   = "sqlite3"
	DefaultLogLevel = "warn"
)

// flag name -> config key
var flagKeys = map[string]string{
	"db":        "db",
	"driver":    "driver",
	"log-level": "log_level",
	"log-file":  "log_file",
	"seed":      "seed",
}

// RegisterFlags adds the persistent flags understood by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("db", DefaultDBPath, "path to the SQLite database file")
	flags.String("driver", DefaultDriver, "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	flags.String("log-level", DefaultLogLevel, "log level: debug, info, warn, error")
	flags.String("log-file", "", "append JSON logs to this file instead of stderr")
	flags.Bool("seed", true, "insert demo members, books and sales when missing")
}

// Load resolves configuration from, in increasing priority: defaults, an
// optional .env file, BOOKSTORE_* environment variables and explicitly set
// flags. flags may be nil.
func Load(flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("db", DefaultDBPath)
	v.SetDefault("driver", DefaultDriver)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("seed", true)

	// BOOKSTORE_LOG_LEVEL -> log_level
	v.SetEnvPrefix("BOOKSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	if cfg.DBPath == "" {
		return errors.New("config: db path cannot be empty")
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch cfg.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("config: unsupported driver %q (want sqlite3 or sqlite)", cfg.Driver)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return nil
}
