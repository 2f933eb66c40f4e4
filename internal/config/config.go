package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/calvinwijaya/uno-game-be/internal/game"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds everything the binaries need to start
type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	FrontendURL string
	LogLevel    string
	LogFormat   string
	RulesFile   string

	Rules game.Rules
	// AutoPlayDrawn makes the presentation layer play a legal drawn card
	// for the human right away
	AutoPlayDrawn bool
}

// rulesFile is the YAML layout of UNO_RULES_FILE
type rulesFile struct {
	game.Rules    `yaml:",inline"`
	AutoPlayDrawn *bool `yaml:"auto_play_drawn"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Port:          "8080",
		DBDriver:      "sqlite3",
		DBDSN:         "./data/uno.db",
		FrontendURL:   "http://localhost:5173",
		LogLevel:      "info",
		LogFormat:     "text",
		Rules:         game.DefaultRules(),
		AutoPlayDrawn: true,
	}
}

// Load reads envFile (if present), then UNO_* environment variables, then
// the rules file they point at.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := Default()
	setString(&cfg.Port, "UNO_PORT")
	setString(&cfg.DBDriver, "UNO_DB_DRIVER")
	setString(&cfg.DBDSN, "UNO_DB_DSN")
	setString(&cfg.FrontendURL, "UNO_FRONTEND_URL")
	setString(&cfg.LogLevel, "UNO_LOG_LEVEL")
	setString(&cfg.LogFormat, "UNO_LOG_FORMAT")
	setString(&cfg.RulesFile, "UNO_RULES_FILE")

	if v, ok := os.LookupEnv("UNO_AUTO_PLAY_DRAWN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("UNO_AUTO_PLAY_DRAWN: %w", err)
		}
		cfg.AutoPlayDrawn = b
	}

	if cfg.RulesFile != "" {
		if err := cfg.LoadRules(cfg.RulesFile); err != nil {
			return Config{}, err
		}
	}

	return cfg, cfg.Validate()
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// LoadRules overlays the YAML rules file at path onto cfg
func (c *Config) LoadRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading rules file: %w", err)
	}
	return c.parseRules(data)
}

func (c *Config) parseRules(data []byte) error {
	f := rulesFile{Rules: c.Rules}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing rules file: %w", err)
	}

	c.Rules = f.Rules
	if f.AutoPlayDrawn != nil {
		c.AutoPlayDrawn = *f.AutoPlayDrawn
	}
	return nil
}

// Validate rejects values the binaries cannot start with
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	switch c.DBDriver {
	case "sqlite3", "postgres", "none":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	return nil
}

// NewLogger builds the process logger from the log settings
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
