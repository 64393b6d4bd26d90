// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"flag" // cmd line params
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/richard-senior/rocketrun/internal/logger"
)

const (
	ModeHighscore   = "highscore"
	ModeLeaderboard = "leaderboard"

	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	ServerPort          int    `json:"SERVER_PORT" env:"PORT" flag:"port"`
	Mode                string `json:"MODE" env:"ROCKETRUN_MODE" flag:"mode"`
	StoreDriver         string `json:"STORE_DRIVER" env:"ROCKETRUN_STORE" flag:"store"`
	DatabasePath        string `json:"DATABASE_PATH" env:"ROCKETRUN_DB" flag:"db"`
	MongoURI            string `json:"MONGODB_URI" env:"MONGODB_URI" flag:"mongo-uri"`
	MongoDatabase       string `json:"MONGO_DATABASE" env:"ROCKETRUN_MONGO_DB" flag:"mongo-db"`
	StoreTimeoutSeconds int    `json:"STORE_TIMEOUT_SECONDS" env:"ROCKETRUN_STORE_TIMEOUT" flag:"store-timeout"`
	AllowedOrigins      string `json:"ALLOWED_ORIGINS" env:"ROCKETRUN_ORIGINS" flag:"origins"`
	TemplateDir         string `json:"TEMPLATE_DIR" env:"ROCKETRUN_TEMPLATES" flag:"templates"`
	StaticDir           string `json:"STATIC_DIR" env:"ROCKETRUN_STATIC" flag:"static"`
	LogLevel            string `json:"LOG_LEVEL" env:"ROCKETRUN_LOG_LEVEL" flag:"log-level"`
	Debug               bool   `json:"DEBUG" env:"ROCKETRUN_DEBUG" flag:"debug"`
}

// file names are variables so tests can point them at a temp dir
var (
	configuration *Config
	configFile    = "config.json"
	envFile       = ".env"
)

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		ServerPort:          5000,
		Mode:                ModeLeaderboard,
		StoreDriver:         DriverSQLite,
		DatabasePath:        "rocketrun.db",
		MongoDatabase:       "rocketrun",
		StoreTimeoutSeconds: 5,
		AllowedOrigins:      "*",
		TemplateDir:         "templates",
		StaticDir:           "static",
		LogLevel:            "info",
	}
}

// Load builds the configuration in layers: defaults, config.json (optional),
// .env (optional), environment variables and finally command line flags.
// args are the command line arguments without the program name.
func Load(args []string) error {
	cfg := Default()

	if err := loadFile(cfg); err != nil {
		return err
	}

	// godotenv never overrides variables that are already set
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := applyEnv(cfg); err != nil {
		return err
	}
	if err := applyFlags(cfg, args); err != nil {
		return err
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return err
	}

	configuration = cfg
	return nil
}

func loadFile(cfg *Config) error {
	file, err := os.Open(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	logger.Debug("Loaded configuration from %s", configFile)
	return nil
}

func applyEnv(cfg *Config) error {
	configType := reflect.TypeOf(*cfg)
	configValue := reflect.ValueOf(cfg).Elem()

	for i := 0; i < configType.NumField(); i++ {
		field := configType.Field(i)
		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}
		envValue, ok := os.LookupEnv(envName)
		if !ok || envValue == "" {
			continue
		}

		switch field.Type.Kind() {
		case reflect.Int:
			val, err := strconv.Atoi(strings.TrimSpace(envValue))
			if err != nil {
				return fmt.Errorf("%s must be an integer: %w", envName, err)
			}
			configValue.Field(i).SetInt(int64(val))
		case reflect.String:
			configValue.Field(i).SetString(envValue)
		case reflect.Bool:
			val, err := strconv.ParseBool(envValue)
			if err != nil {
				return fmt.Errorf("%s must be a boolean: %w", envName, err)
			}
			configValue.Field(i).SetBool(val)
		}
	}
	return nil
}

func applyFlags(cfg *Config, args []string) error {
	configType := reflect.TypeOf(*cfg)
	configValue := reflect.ValueOf(cfg).Elem()

	fs := flag.NewFlagSet("rocketrun", flag.ContinueOnError)
	for i := 0; i < configType.NumField(); i++ {
		field := configType.Field(i)
		flagName := field.Tag.Get("flag")
		if flagName == "" {
			continue
		}
		usage := "overrides " + field.Tag.Get("env")
		switch field.Type.Kind() {
		case reflect.Int:
			fs.IntVar(configValue.Field(i).Addr().Interface().(*int),
				flagName, int(configValue.Field(i).Int()), usage)
		case reflect.String:
			fs.StringVar(configValue.Field(i).Addr().Interface().(*string),
				flagName, configValue.Field(i).String(), usage)
		case reflect.Bool:
			fs.BoolVar(configValue.Field(i).Addr().Interface().(*bool),
				flagName, configValue.Field(i).Bool(), usage)
		}
	}

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	return nil
}

// Validate rejects values the server cannot start with
func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid port %d", c.ServerPort)
	}
	switch c.Mode {
	case ModeHighscore, ModeLeaderboard:
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeHighscore, ModeLeaderboard)
	}
	if c.Mode == ModeLeaderboard {
		switch c.StoreDriver {
		case DriverSQLite:
			if c.DatabasePath == "" {
				return errors.New("database path is required for the sqlite store")
			}
		case DriverMongo:
			if c.MongoURI == "" {
				return errors.New("MONGODB_URI is required for the mongo store")
			}
		default:
			return fmt.Errorf("unknown store driver %q", c.StoreDriver)
		}
	}
	if c.StoreTimeoutSeconds < 1 {
		return fmt.Errorf("store timeout must be positive, got %d", c.StoreTimeoutSeconds)
	}
	return nil
}

func Get() *Config {
	if configuration == nil {
		if err := Load(nil); err != nil {
			logger.Fatal("Failed to load configuration: %v", err)
		}
	}
	return configuration
}

func GetPortString() string {
	return strconv.Itoa(Get().ServerPort)
}

func GetMode() string {
	return Get().Mode
}

func GetStoreTimeout() time.Duration {
	return time.Duration(Get().StoreTimeoutSeconds) * time.Second
}

// GetAllowedOrigins splits the comma separated origin list
func GetAllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(Get().AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
