package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	TTS       TTSConfig       `mapstructure:"tts"`
	STT       STTConfig       `mapstructure:"stt"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Report    ReportConfig    `mapstructure:"report"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
}

func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type TrackerConfig struct {
	Language     string `mapstructure:"language"`
	NotifyBuffer int    `mapstructure:"notify_buffer"`
}

type AssistantConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTurns    int           `mapstructure:"max_turns"`
}

type TTSConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	VoiceID string        `mapstructure:"voice_id"`
	ModelID string        `mapstructure:"model_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type STTConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TelegramConfig struct {
	Token          string `mapstructure:"token"`
	BaseURL        string `mapstructure:"base_url"`
	CareTeamChatID int64  `mapstructure:"care_team_chat_id"`
}

// MQTTConfig is disabled when Broker is empty.
type MQTTConfig struct {
	Broker      string        `mapstructure:"broker"`
	ClientID    string        `mapstructure:"client_id"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	QoS         int           `mapstructure:"qos"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// StorageConfig is disabled when Endpoint is empty.
type StorageConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	AccessKey  string        `mapstructure:"access_key"`
	SecretKey  string        `mapstructure:"secret_key"`
	Bucket     string        `mapstructure:"bucket"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	PublicBase string        `mapstructure:"public_base"`
	LinkTTL    time.Duration `mapstructure:"link_ttl"`
}

type ReportConfig struct {
	PatientName string   `mapstructure:"patient_name"`
	FontPaths   []string `mapstructure:"font_paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.cors_origin", "*")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("tracker.language", "en-US")
	v.SetDefault("tracker.notify_buffer", 64)

	v.SetDefault("assistant.base_url", "https://api.deepseek.com")
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.model", "deepseek-chat")
	v.SetDefault("assistant.temperature", 0.7)
	v.SetDefault("assistant.timeout", 60*time.Second)
	v.SetDefault("assistant.max_turns", 20)

	v.SetDefault("tts.base_url", "https://api.elevenlabs.io/v1/text-to-speech")
	v.SetDefault("tts.api_key", "")
	v.SetDefault("tts.voice_id", "")
	v.SetDefault("tts.model_id", "")
	v.SetDefault("tts.timeout", 60*time.Second)

	v.SetDefault("stt.url", "http://localhost:9000/transcribe")
	v.SetDefault("stt.timeout", 60*time.Second)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.base_url", "")
	v.SetDefault("telegram.care_team_chat_id", 0)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "patient-monitor")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "patient-monitor")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.timeout", 5*time.Second)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "reports")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.public_base", "")
	v.SetDefault("storage.link_ttl", time.Duration(0))

	v.SetDefault("report.patient_name", "")
	v.SetDefault("report.font_paths", []string{})
}

// NewConfig reads .env, then an optional config.toml (CONFIG_NAME overrides the name),
// then the environment. SERVER_PORT overrides server.port and so on.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configName := "config"
	if name := os.Getenv("CONFIG_NAME"); name != "" {
		configName = name
	}
	return load(configName, "config", ".")
}

func load(name string, paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(name)
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Debug("no config file found, using defaults and environment")
	} else {
		log.WithField("file", v.ConfigFileUsed()).Info("config file loaded")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return nil, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}

	log.Info("config parsed")
	return cfg, nil
}

// SetupLogging applies the log level and format to the standard logrus logger.
func SetupLogging(c LogConfig) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
