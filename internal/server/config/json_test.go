package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"testbin"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	withArgs(t)

	var c Config
	c.LoadDefaults()
	before := c

	parseJson(&c)
	assert.Equal(t, before, c)
}

func TestParseJson_OverlaysValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	body := `{
		"endpoint_addr_http": ":9090",
		"database_dsn": "postgres://u:p@db:5432/linkup",
		"secret_key": "json-secret",
		"access_token_validity_duration": "5m",
		"refresh_token_validity_duration": "48h",
		"bcrypt_cost": 12
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, ":9090", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://u:p@db:5432/linkup", c.DatabaseDSN)
	assert.Equal(t, "json-secret", c.SecretKey)
	assert.Equal(t, 5*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 48*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 12, c.BcryptCost)
}

func TestParseJson_PanicsOnMissingFile(t *testing.T) {
	withArgs(t, "-c", "/no/such/file.json")

	var c Config
	c.LoadDefaults()
	assert.Panics(t, func() { parseJson(&c) })
}

func TestParseJson_PanicsOnInvalidJson(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	withArgs(t, "-c", path)

	var c Config
	c.LoadDefaults()
	assert.Panics(t, func() { parseJson(&c) })
}
