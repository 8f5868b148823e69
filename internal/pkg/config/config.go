package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	MqttCfg       MqttConfig
	HttpCfg       HttpConfig
	ClassifierCfg ClassifierConfig
	DatabaseCfg   DatabaseConfig
	InfluxCfg     InfluxConfig
	GateCfg       GateConfig
	LogLevel      string `env:"LOG_LEVEL" envDefault:"INFO"`
}

type MqttConfig struct {
	Broker         string        `env:"MQTT_BROKER" envDefault:"broker.emqx.io"`
	Port           int           `env:"MQTT_PORT" envDefault:"8883"`
	Username       string        `env:"MQTT_USERNAME"`
	Password       string        `env:"MQTT_PASSWORD"`
	BaseTopic      string        `env:"MQTT_BASE_TOPIC" envDefault:"waste"`
	ClientID       string        `env:"MQTT_CLIENT_ID"`
	UseSSL         bool          `env:"MQTT_USE_SSL" envDefault:"true"`
	VerifyCerts    bool          `env:"MQTT_VERIFY_CERTS" envDefault:"true"`
	CACert         string        `env:"MQTT_CA_CERT"`
	CACertPath     string        `env:"MQTT_CA_CERT_PATH"`
	AutoReconnect  bool          `env:"MQTT_AUTO_RECONNECT" envDefault:"true"`
	KeepAlive      time.Duration `env:"MQTT_KEEP_ALIVE" envDefault:"60s"`
	ConnectTimeout time.Duration `env:"MQTT_CONNECT_TIMEOUT" envDefault:"10s"`
	PublishTimeout time.Duration `env:"MQTT_PUBLISH_TIMEOUT" envDefault:"5s"`
}

// HttpConfig covers the API listener. Setting StreamTokenSecret puts /ws behind tokens from POST /stream_token.
type HttpConfig struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8000"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	APIKeyHash        string        `env:"API_KEY_HASH"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	StreamTokenSecret string        `env:"STREAM_TOKEN_SECRET"`
	StreamTokenTTL    time.Duration `env:"STREAM_TOKEN_TTL" envDefault:"60s"`
}

type ClassifierConfig struct {
	ModelPath string `env:"MODEL_PATH" envDefault:"ml/model/model.onnx"`
}

type DatabaseConfig struct {
	URL           string `env:"DATABASE_URL"`
	RetentionDays int    `env:"EVENT_RETENTION_DAYS" envDefault:"8"`
	CleanupCron   string `env:"EVENT_CLEANUP_CRON" envDefault:"0 3 * * *"`
}

func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

type InfluxConfig struct {
	URL    string `env:"INFLUX_URL"`
	Token  string `env:"INFLUX_TOKEN"`
	Org    string `env:"INFLUX_ORG"`
	Bucket string `env:"INFLUX_BUCKET" envDefault:"waste_bin"`
}

func (c *InfluxConfig) Enabled() bool {
	return c.URL != ""
}

type GateConfig struct {
	SerializeDispatch bool `env:"GATE_SERIALIZE_DISPATCH" envDefault:"false"`
}

// Load reads optional dotenv files and then parses the environment.
func Load(envFiles ...string) (*Config, error) {
	files := lo.Filter(envFiles, func(f string, _ int) bool { return f != "" })
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// a missing dotenv file is fine, the environment may already be populated.
		_ = godotenv.Load(f)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg.MqttCfg.BaseTopic = strings.TrimSuffix(cfg.MqttCfg.BaseTopic, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate only checks values, normalisation happens in Load.
func (c *Config) Validate() error {
	if c.MqttCfg.Port <= 0 || c.MqttCfg.Port > 65535 {
		return fmt.Errorf("%w: MQTT_PORT %d out of range", ErrInvalidConfig, c.MqttCfg.Port)
	}
	if strings.TrimSuffix(c.MqttCfg.BaseTopic, "/") == "" {
		return fmt.Errorf("%w: MQTT_BASE_TOPIC is required", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.MqttCfg.BaseTopic, "+#") {
		return fmt.Errorf("%w: MQTT_BASE_TOPIC must not contain wildcards", ErrInvalidConfig)
	}
	if c.HttpCfg.StreamTokenSecret != "" && len(c.HttpCfg.StreamTokenSecret) < 16 {
		return fmt.Errorf("%w: STREAM_TOKEN_SECRET must be at least 16 bytes", ErrInvalidConfig)
	}
	if c.HttpCfg.StreamTokenTTL <= 0 {
		return fmt.Errorf("%w: STREAM_TOKEN_TTL must be positive", ErrInvalidConfig)
	}
	if c.DatabaseCfg.RetentionDays <= 0 {
		return fmt.Errorf("%w: EVENT_RETENTION_DAYS must be positive", ErrInvalidConfig)
	}
	return nil
}
