package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taskadmin/internal/domain/errors"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr            string        `json:"addr" yaml:"addr"`
	Port            int           `json:"port" yaml:"port"`
	DBStr           string        `json:"db_str" yaml:"db_str"`
	MigratePath     string        `json:"migrate_path" yaml:"migrate_path"`
	LogLevel        string        `json:"log_level" yaml:"log_level"`
	DBMaxConns      int32         `json:"db_max_conns" yaml:"db_max_conns"`
	QueryTimeout    time.Duration `json:"query_timeout" yaml:"query_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

const (
	defaultAddr            = "0.0.0.0"
	defaultPort            = 8080
	defaultDBStr           = "postgresql://taskadmin:taskadmin@db:5432/taskadmin?sslmode=disable"
	defaultMigratePath     = "migrations"
	defaultLogLevel        = "info"
	defaultDBMaxConns      = 10
	defaultQueryTimeout    = 15 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

func DefaultConfig() *Config {
	return &Config{
		Addr:            defaultAddr,
		Port:            defaultPort,
		DBStr:           defaultDBStr,
		MigratePath:     defaultMigratePath,
		LogLevel:        defaultLogLevel,
		DBMaxConns:      defaultDBMaxConns,
		QueryTimeout:    defaultQueryTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// ListenAddr is the host:port the HTTP server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

// ReadConfig layers defaults, the config file, environment and explicitly
// set flags, in that order. Warnings about rejected values go to warn.
func ReadConfig(args []string, warn io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("taskadmin", flag.ContinueOnError)
	addr := fs.String("addr", defaultAddr, "server address")
	port := fs.Int("port", defaultPort, "server port")
	dbstr := fs.String("dbstr", defaultDBStr, "database connection string")
	dbDsn := fs.String("dbdsn", "", "database DSN (takes precedence over dbstr)")
	migratePath := fs.String("migratepath", defaultMigratePath, "path to the migrations directory")
	logLevel := fs.String("loglevel", defaultLogLevel, "log level: debug, info, warn, error")
	configFile := fs.String("c", "", "path to a JSON or YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG")
	}
	if path != "" {
		if err := loadConfigFile(path, cfg); err != nil {
			fmt.Fprintf(warn, "Warning: %v\n", err)
		}
	}

	applyEnvOverrides(cfg, warn)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "port":
			cfg.Port = *port
		case "dbstr":
			if *dbDsn == "" {
				cfg.DBStr = *dbstr
			}
		case "dbdsn":
			cfg.DBStr = *dbDsn
		case "migratepath":
			cfg.MigratePath = *migratePath
		case "loglevel":
			cfg.LogLevel = *logLevel
		}
	})

	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %v", errors.ErrConfigFileReadFailed, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("%w %s: %v", errors.ErrConfigParseFailed, path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, warn io.Writer) {
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err != nil {
			fmt.Fprintf(warn, "Warning: %v in PORT: %s\n", errors.ErrConfigInvalidFormat, port)
		} else if p < 1 || p > 65535 {
			fmt.Fprintf(warn, "Warning: %v: port must be within 1-65535, got %d\n", errors.ErrConfigInvalidFormat, p)
		} else {
			cfg.Port = p
		}
	}
	if dbStr := os.Getenv("DB_STR"); dbStr != "" {
		cfg.DBStr = dbStr
	}
	if migratePath := os.Getenv("MIGRATE_PATH"); migratePath != "" {
		cfg.MigratePath = migratePath
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if maxConns := os.Getenv("DB_MAX_CONNS"); maxConns != "" {
		if n, err := strconv.ParseInt(maxConns, 10, 32); err != nil || n < 1 {
			fmt.Fprintf(warn, "Warning: %v in DB_MAX_CONNS: %s\n", errors.ErrConfigInvalidFormat, maxConns)
		} else {
			cfg.DBMaxConns = int32(n)
		}
	}

	if cfg.DBStr == defaultDBStr {
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
			cfg.DBStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
		}
	}
}
