package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, time.Hour, cfg.Database.MySQLMaxLife)
	assert.Equal(t, 5*time.Minute, cfg.Mission.TemplateCacheTTL)
	assert.Equal(t, "mission:events", cfg.Mission.EventChannel)
	assert.Equal(t, time.Second, cfg.Mission.AuditFlushInterval)
	assert.Equal(t, 72*time.Hour, cfg.Security.JWTTTLH)
	assert.Zero(t, cfg.Data.ReloadInterval)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  admin_allow_ips: ["127.0.0.1", "10.0.0.0/8"]
database:
  mode: mysql
  mysql_dsn: "user:pw@tcp(localhost:3306)/quest"
mission:
  rng_seed: 42
  species_cache_ttl: 30s
data:
  path: /srv/data
  reload_interval: 1m
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"127.0.0.1", "10.0.0.0/8"}, cfg.Server.AdminAllowIPs)
	assert.Equal(t, "mysql", cfg.Database.Mode)
	assert.Equal(t, "user:pw@tcp(localhost:3306)/quest", cfg.Database.MySQLDSN)
	assert.Equal(t, uint64(42), cfg.Mission.RNGSeed)
	assert.Equal(t, 30*time.Second, cfg.Mission.SpeciesCacheTTL)
	assert.Equal(t, "/srv/data", cfg.Data.Path)
	assert.Equal(t, time.Minute, cfg.Data.ReloadInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
