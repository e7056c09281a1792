package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("missing", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "en-US", cfg.Tracker.Language)
	assert.Equal(t, "deepseek-chat", cfg.Assistant.Model)
	assert.Equal(t, 20, cfg.Assistant.MaxTurns)
	assert.Equal(t, 1, cfg.MQTT.QoS)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.Equal(t, "reports", cfg.Storage.Bucket)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[server]
port = 9090
request_timeout = "15s"

[tracker]
language = "fr-CA"

[telegram]
care_team_chat_id = 123456

[report]
font_paths = ["/fonts/a.ttf", "/fonts/b.ttf"]
`), 0o600))

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("ASSISTANT_API_KEY", "sk-test")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")

	cfg, err := load("config", dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "fr-CA", cfg.Tracker.Language)
	assert.Equal(t, int64(123456), cfg.Telegram.CareTeamChatID)
	assert.Equal(t, []string{"/fonts/a.ttf", "/fonts/b.ttf"}, cfg.Report.FontPaths)
	assert.Equal(t, "sk-test", cfg.Assistant.APIKey)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
}

func TestLoad_RejectsBadQoS(t *testing.T) {
	t.Setenv("MQTT_QOS", "3")
	_, err := load("missing", t.TempDir())
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nport = "), 0o600))
	_, err := load("config", dir)
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	require.NoError(t, SetupLogging(LogConfig{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.Error(t, SetupLogging(LogConfig{Level: "loud"}))
}
