package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "broker.emqx.io", cfg.MqttCfg.Broker)
	assert.Equal(t, 8883, cfg.MqttCfg.Port)
	assert.Equal(t, "waste", cfg.MqttCfg.BaseTopic)
	assert.True(t, cfg.MqttCfg.UseSSL)
	assert.True(t, cfg.MqttCfg.VerifyCerts)
	assert.Equal(t, 5*time.Second, cfg.MqttCfg.PublishTimeout)
	assert.Equal(t, "0.0.0.0:8000", cfg.HttpCfg.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HttpCfg.AllowedOrigins)
	assert.False(t, cfg.DatabaseCfg.Enabled())
	assert.False(t, cfg.InfluxCfg.Enabled())
	assert.False(t, cfg.GateCfg.SerializeDispatch)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Empty(t, cfg.HttpCfg.StreamTokenSecret)
	assert.Equal(t, time.Minute, cfg.HttpCfg.StreamTokenTTL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MQTT_BROKER", "test.broker.com")
	t.Setenv("MQTT_PORT", "1883")
	t.Setenv("MQTT_USERNAME", "test_user")
	t.Setenv("MQTT_PASSWORD", "test_pass")
	t.Setenv("MQTT_BASE_TOPIC", "test/waste/")
	t.Setenv("MQTT_USE_SSL", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "test.broker.com", cfg.MqttCfg.Broker)
	assert.Equal(t, 1883, cfg.MqttCfg.Port)
	assert.Equal(t, "test_user", cfg.MqttCfg.Username)
	assert.Equal(t, "test_pass", cfg.MqttCfg.Password)
	assert.Equal(t, "test/waste", cfg.MqttCfg.BaseTopic)
	assert.False(t, cfg.MqttCfg.UseSSL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.HttpCfg.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MQTT_BASE_TOPIC=from/file\nDATABASE_URL=postgres://localhost/bins\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("MQTT_BASE_TOPIC")
		os.Unsetenv("DATABASE_URL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from/file", cfg.MqttCfg.BaseTopic)
	assert.True(t, cfg.DatabaseCfg.Enabled())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("MQTT_PORT", "invalid")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("MQTT_PORT", "70000")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_Wildcards(t *testing.T) {
	t.Setenv("MQTT_BASE_TOPIC", "waste/#")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_StreamTokenSecret(t *testing.T) {
	t.Setenv("STREAM_TOKEN_SECRET", "short")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("STREAM_TOKEN_SECRET", "0123456789abcdef")
	t.Setenv("STREAM_TOKEN_TTL", "2m")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.HttpCfg.StreamTokenTTL)
}

func TestValidate_LeavesConfigUntouched(t *testing.T) {
	cfg := Config{
		MqttCfg:     MqttConfig{Port: 1883, BaseTopic: "waste/"},
		HttpCfg:     HttpConfig{StreamTokenTTL: time.Minute},
		DatabaseCfg: DatabaseConfig{RetentionDays: 8},
	}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "waste/", cfg.MqttCfg.BaseTopic)

	cfg.MqttCfg.BaseTopic = "/"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
