package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SHAREIT_DB_PATH", "data/shareit.db")

	yamlContent := `
app:
  name: "shareit"
database:
  path: "${SHAREIT_DB_PATH}"
http:
  port: 8080
  write_timeout: 30s
rate_limit:
  rps: 5
  burst: 10
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "data/shareit.db", cfg.Database.Path)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.InDelta(t, 5.0, cfg.RateLimit.RPS, 0.001)
	assert.Equal(t, 120, cfg.RateLimit.UserRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.UserWindow())
	assert.Equal(t, 1024, cfg.Cache.ItemSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ItemTTL())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("database: [path"), 0o644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid sqlite",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverSQLite, Path: "path"},
				HTTP:     HTTPConfig{Port: 9090},
			},
		},
		{
			name: "missing sqlite path",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverSQLite},
				HTTP:     HTTPConfig{Port: 9090},
			},
			wantErr: true,
		},
		{
			name: "valid postgres",
			cfg: Config{
				Database: DatabaseConfig{
					Driver:   DriverPostgres,
					Postgres: PostgresConfig{Host: "localhost", DBName: "shareit"},
				},
				HTTP: HTTPConfig{Port: 9090},
			},
		},
		{
			name: "postgres without host",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverPostgres},
				HTTP:     HTTPConfig{Port: 9090},
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			cfg: Config{
				Database: DatabaseConfig{Driver: "mysql", Path: "path"},
				HTTP:     HTTPConfig{Port: 9090},
			},
			wantErr: true,
		},
		{
			name: "bad port",
			cfg: Config{
				Database: DatabaseConfig{Driver: DriverSQLite, Path: "path"},
				HTTP:     HTTPConfig{Port: 70000},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults_Postgres(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{Driver: DriverPostgres}}
	cfg.applyDefaults()

	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 10, cfg.Database.Postgres.MaxConnections)
	assert.Contains(t, cfg.Database.Postgres.DSN(), "port=5432")
}

func TestApplyDefaults_Monitoring(t *testing.T) {
	cfg := Config{Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()
	assert.Equal(t, 9091, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, "exports", cfg.Exports.Path)
}
