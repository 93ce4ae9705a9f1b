package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/amm-validator/internal/security"
	"github.com/aman-zulfiqar/amm-validator/internal/value"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, security.DefaultConfig(), cfg.Security)
	assert.Equal(t, ":8090", cfg.API.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.ClickHouse.Enabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AMMV_SECURITY_MAX_PRICE_IMPACT_BPS", "250")
	t.Setenv("AMMV_REDIS_ADDR", "redis:6379")
	t.Setenv("AMMV_LOG_LEVEL", "debug")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), cfg.Security.MaxPriceImpactBps)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("AMMV_API_ADDR", ":1111")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("api-addr", ":8090", "")
	require.NoError(t, fs.Parse([]string{"--api-addr", ":2222"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.API.Addr)
}

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--redis-db", "3", "--dev-mode"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.API.DevMode)
	assert.Equal(t, ":8090", cfg.API.Addr)
	assert.Equal(t, "amm", cfg.ClickHouse.Database)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ammv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log-level: warn
clickhouse-enabled: true
security:
  max_tx_inputs: 4
  min_swap_amounts:
    base: 5000000
  resource:
    per_byte_cost: 10
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.ClickHouse.Enabled)
	assert.Equal(t, 4, cfg.Security.MaxTxInputs)
	assert.Equal(t, uint64(5_000_000), cfg.Security.MinSwapAmount(value.Base))
	assert.Equal(t, uint64(10), cfg.Security.Resource.PerByteCost)
	assert.Equal(t, security.DefaultConfig().Resource.BaseFloor, cfg.Security.Resource.BaseFloor)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	cfg.LogLevel = "loud"
	cfg.API.Addr = ""
	cfg.Security.MaxTxInputs = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log-level")
	assert.Contains(t, err.Error(), "api-addr")
	assert.Contains(t, err.Error(), "security")
}

func TestMinSwapAmounts(t *testing.T) {
	out, err := minSwapAmounts(map[string]string{"base": " 7 "})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), out[value.Base])

	_, err = minSwapAmounts(map[string]string{"nothex.zz": "1"})
	assert.Error(t, err)
	_, err = minSwapAmounts(map[string]string{"base": "-1"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug")
	require.NoError(t, err)
	assert.Equal(t, "debug", l.GetLevel().String())

	_, err = NewLogger("chatty")
	assert.Error(t, err)
}
