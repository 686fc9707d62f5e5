package providers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fpledger/internal/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func baseConfigYAML(dir string) string {
	return `
webServer:
  host: 127.0.0.1
  port: 8080
storage:
  driver: memory
persistence:
  filePath: ` + filepath.Join(dir, "ledger.dat") + `
  saveInterval: 30s
logger:
  level: info
  mode: 420
  dir: ` + dir + `
access:
  apiKey: from-file
`
}

// unsetForTest clears key for the duration of the test and restores it after.
func unsetForTest(t *testing.T, key string) {
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestNewConfigProvider_LoadsYAMLWithDefaults(t *testing.T) {
	unsetForTest(t, "LEDGER_API_KEY")
	unsetForTest(t, "LEDGER_STORAGE_DRIVER")
	dir := t.TempDir()
	path := writeConfig(t, baseConfigYAML(dir))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, "FingerprintLedger", conf.AppName)
	assert.True(t, conf.Debug)
	assert.Equal(t, path, conf.Path)
	assert.Equal(t, 8080, conf.WebServer.Port)
	assert.Equal(t, "memory", conf.Storage.Driver)
	assert.Equal(t, 5*time.Second, conf.Storage.Timeout)
	assert.Equal(t, 30*time.Second, conf.Persistence.SaveInterval)
	assert.Equal(t, "from-file", conf.Access.APIKey)
	assert.True(t, conf.Access.ProtectLookups)
	assert.Equal(t, 30*time.Second, conf.Cache.TTL)
}

func TestNewConfigProvider_EnvOverridesFile(t *testing.T) {
	t.Setenv("LEDGER_API_KEY", "from-env")
	t.Setenv("LEDGER_STORAGE_TIMEOUT", "2s")
	dir := t.TempDir()
	path := writeConfig(t, baseConfigYAML(dir))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.Access.APIKey)
	assert.Equal(t, 2*time.Second, conf.Storage.Timeout)
}

func TestNewConfigProvider_LoadsDotEnvNextToConfig(t *testing.T) {
	unsetForTest(t, "LEDGER_API_KEY")
	dir := t.TempDir()
	path := writeConfig(t, baseConfigYAML(dir))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte("LEDGER_API_KEY=from-dotenv\n"), 0o600))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", conf.Access.APIKey)
}

func TestNewConfigProvider_SQLDriverNeedsDSN(t *testing.T) {
	unsetForTest(t, "LEDGER_STORAGE_DSN")
	t.Setenv("LEDGER_STORAGE_DRIVER", "postgres")
	dir := t.TempDir()
	path := writeConfig(t, baseConfigYAML(dir))

	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
}

func TestNewConfigProvider_MissingFile(t *testing.T) {
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}
