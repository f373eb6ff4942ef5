package server

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"CONFIG", "ADDR", "PORT", "DB_STR", "MIGRATE_PATH", "LOG_LEVEL", "DB_MAX_CONNS",
	"DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	var warn bytes.Buffer
	cfg, err := ReadConfig(nil, &warn)

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Empty(t, warn.String())
}

func TestReadConfigLayers(t *testing.T) {
	tests := []struct {
		name  string
		args  func(t *testing.T) []string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
		want  struct {
			warning string
		}
	}{
		{
			name: "json file",
			args: func(t *testing.T) []string {
				return []string{"-c", writeConfigFile(t, "config.json", `{"port": 9090, "log_level": "debug", "migrate_path": "/srv/migrations"}`)}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Port)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "/srv/migrations", cfg.MigratePath)
				assert.Equal(t, defaultAddr, cfg.Addr)
			},
		},
		{
			name: "yaml file",
			args: func(t *testing.T) []string {
				return []string{"-c", writeConfigFile(t, "config.yaml", "addr: 127.0.0.1\nport: 7070\nquery_timeout: 3s\ndb_max_conns: 4\n")}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "127.0.0.1:7070", cfg.ListenAddr())
				assert.Equal(t, 3*time.Second, cfg.QueryTimeout)
				assert.Equal(t, int32(4), cfg.DBMaxConns)
			},
		},
		{
			name: "env overrides file",
			args: func(t *testing.T) []string {
				return []string{"-c", writeConfigFile(t, "config.json", `{"port": 9090}`)}
			},
			env: map[string]string{"PORT": "6060", "LOG_LEVEL": "warn"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Port)
				assert.Equal(t, "warn", cfg.LogLevel)
			},
		},
		{
			name: "explicit flags override env",
			args: func(*testing.T) []string { return []string{"-port", "5050", "-loglevel", "error"} },
			env:  map[string]string{"PORT": "6060", "LOG_LEVEL": "warn", "ADDR": "10.0.0.1"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5050, cfg.Port)
				assert.Equal(t, "error", cfg.LogLevel)
				assert.Equal(t, "10.0.0.1", cfg.Addr, "unset flags must not clobber env")
			},
		},
		{
			name: "dbdsn wins over dbstr",
			args: func(*testing.T) []string {
				return []string{"-dbstr", "postgres://a@h/one", "-dbdsn", "postgres://b@h/two"}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://b@h/two", cfg.DBStr)
			},
		},
		{
			name: "dsn assembled from parts",
			args: func(*testing.T) []string { return nil },
			env: map[string]string{
				"DB_USER": "u", "DB_PASSWORD": "p", "DB_HOST": "pg", "DB_PORT": "5433", "DB_NAME": "tasks",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgresql://u:p@pg:5433/tasks?sslmode=disable", cfg.DBStr)
			},
		},
		{
			name: "config path from env",
			args: func(t *testing.T) []string {
				t.Setenv("CONFIG", writeConfigFile(t, "config.yml", "migrate_path: ./db\n"))
				return nil
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "./db", cfg.MigratePath)
			},
		},
		{
			name: "port out of range ignored",
			args: func(*testing.T) []string { return nil },
			env:  map[string]string{"PORT": "70000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, defaultPort, cfg.Port)
			},
			want: struct {
				warning string
			}{warning: "port must be within 1-65535"},
		},
		{
			name: "non-numeric port ignored",
			args: func(*testing.T) []string { return nil },
			env:  map[string]string{"PORT": "http"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, defaultPort, cfg.Port)
			},
			want: struct {
				warning string
			}{warning: "invalid config value in PORT: http"},
		},
		{
			name: "missing file keeps defaults",
			args: func(t *testing.T) []string {
				return []string{"-c", filepath.Join(t.TempDir(), "absent.json")}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
			want: struct {
				warning string
			}{warning: "failed to read config file"},
		},
		{
			name: "malformed file keeps defaults",
			args: func(t *testing.T) []string {
				return []string{"-c", writeConfigFile(t, "config.json", `{"port":`)}
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, defaultPort, cfg.Port)
			},
			want: struct {
				warning string
			}{warning: "failed to parse config file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var warn bytes.Buffer
			cfg, err := ReadConfig(tt.args(t), &warn)

			require.NoError(t, err)
			tt.check(t, cfg)
			if tt.want.warning != "" {
				assert.Contains(t, warn.String(), tt.want.warning)
			} else {
				assert.Empty(t, warn.String())
			}
		})
	}
}

func TestReadConfigUnknownFlag(t *testing.T) {
	clearConfigEnv(t)

	_, err := ReadConfig([]string{"-nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}
