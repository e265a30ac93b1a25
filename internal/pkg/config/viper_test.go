package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  name: toolvault
  debug: true
  port: 8081
totp:
  period: 30
challenge:
  ttl: 10
lockout:
  window: 15
secret:
  key: dG9vbHZhdWx0LXRlc3Qta2V5
servers: a.example.com,b.example.com
labels: env:test,region:local
`

func testConfig(t *testing.T) *Viper {
	t.Helper()

	cfg, err := NewViperFromBytes("yaml", []byte(testYAML))
	require.NoError(t, err)
	return cfg
}

func TestViper_TypedGetters(t *testing.T) {
	cfg := testConfig(t)

	assert.Equal(t, "toolvault", cfg.GetString("app.name"))
	assert.True(t, cfg.GetBool("app.debug"))
	assert.Equal(t, 8081, cfg.GetInt("app.port"))
	assert.Equal(t, uint16(8081), cfg.GetUint16("app.port"))
	assert.Equal(t, 30*time.Second, cfg.GetSecond("totp.period"))
	assert.Equal(t, 10*time.Minute, cfg.GetMinute("challenge.ttl"))
	assert.Equal(t, 15*time.Hour, cfg.GetHour("lockout.window"))
}

func TestViper_GetBinary(t *testing.T) {
	cfg := testConfig(t)

	assert.Equal(t, []byte("toolvault-test-key"), cfg.GetBinary("secret.key"))
	assert.Nil(t, cfg.GetBinary("app.name"))
}

func TestViper_GetArrayAndMap(t *testing.T) {
	cfg := testConfig(t)

	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.GetArray("servers"))
	assert.Equal(t, map[string]string{"env": "test", "region": "local"}, cfg.GetMap("labels"))
}

func TestViper_MissingKeys(t *testing.T) {
	cfg := testConfig(t)

	assert.Empty(t, cfg.GetString("nope"))
	assert.Zero(t, cfg.GetInt("nope"))
	assert.False(t, cfg.GetBool("nope"))
}

func TestNewViperFromBytes_Invalid(t *testing.T) {
	_, err := NewViperFromBytes("", []byte("x: 1"))
	assert.Error(t, err)

	_, err = NewViperFromBytes("yaml", []byte("{not yaml"))
	assert.Error(t, err)
}
