package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.Equal(t, 8080, v.GetInt("port"))
	assert.Equal(t, "info", v.GetString("log_level"))
	assert.Equal(t, 30, v.GetInt("ingestion_history_years"))
	assert.Equal(t, 90, v.GetInt("projection_days_default"))
	assert.Equal(t, 7.0, v.GetFloat64("heat_rate_mmbtu_per_mwh"))
	assert.Equal(t, 100.0, v.GetFloat64("fallback_marginal_price_usd_mwh"))
	assert.False(t, v.GetBool("demo_mode"))
}

func TestDefaultsCoverAllKnownKeys(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	for key := range knownKeys {
		assert.True(t, v.IsSet(key), "key %q has no default", key)
	}
}

func TestRejectUnknown(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("port: 9000\nlog_level: debug\n")))
	assert.NoError(t, rejectUnknown(v))

	v2 := viper.New()
	v2.SetConfigType("yaml")
	require.NoError(t, v2.ReadConfig(strings.NewReader("prot: 9000\n")))
	err := rejectUnknown(v2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prot")
}

func TestRejectUnknownNestedKey(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("observability:\n  tracing: true\n")))
	assert.Error(t, rejectUnknown(v))
}
