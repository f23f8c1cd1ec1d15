package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const configPathEnv = "ATTRIBUTION_CONFIG_PATH"

type AttributionConfig struct {
	Env           string `yaml:"env" env:"ATTRIBUTION_ENV" env-default:"local"`
	HTTPServer    `yaml:"http_server"`
	GRPCServer    `yaml:"grpc_server"`
	AttributionDB `yaml:"attribution_db"`
	Redis         `yaml:"redis"`
	KafkaService  `yaml:"kafka-service"`
	LogConfig     `yaml:"log_config"`
	Auth          `yaml:"auth"`
	Attribution   `yaml:"attribution"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50071"`
}

type AttributionDB struct {
	Dsn            string `yaml:"dsn" env:"ATTRIBUTION_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"ATTRIBUTION_MIGRATIONS_PATH"`
	// AutoMigrate syncs tables from the GORM models instead of SQL migrations.
	AutoMigrate bool `yaml:"auto_migrate" env:"ATTRIBUTION_AUTO_MIGRATE"`
}

type Redis struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

type KafkaService struct {
	Enabled    bool   `yaml:"enabled" env:"KAFKA_ENABLED"`
	Host       string `yaml:"host" env:"KAFKA_HOST"`
	Port       string `yaml:"port" env:"KAFKA_PORT"`
	Topic      string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"attribution-clicks"`
	Username   string `yaml:"username" env:"KAFKA_USERNAME"`
	Password   string `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism  string `yaml:"mechanism" env:"KAFKA_MECHANISM"`
	TLSEnabled bool   `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED"`
}

func (k KafkaService) Broker() string {
	return fmt.Sprintf("%s:%s", k.Host, k.Port)
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

type Attribution struct {
	AffiliateTTLDays float64       `yaml:"affiliate_ttl_days" env-default:"7"`
	CampaignTTLDays  float64       `yaml:"campaign_ttl_days" env-default:"3"`
	CookieName       string        `yaml:"cookie_name" env-default:"sf_vid"`
	StoreBackend     string        `yaml:"store_backend" env:"ATTRIBUTION_STORE_BACKEND" env-default:"redis"`
	SweepInterval    time.Duration `yaml:"sweep_interval" env-default:"10m"`
}

// Load reads the YAML file at path; env variables override file values.
func Load(path string) (*AttributionConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg AttributionConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AttributionConfig) validate() error {
	switch c.Attribution.StoreBackend {
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for the redis store backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown attribution.store_backend %q", c.Attribution.StoreBackend)
	}
	if c.AttributionDB.Dsn == "" {
		return fmt.Errorf("attribution_db.dsn is required")
	}
	if c.Attribution.AffiliateTTLDays <= 0 || c.Attribution.CampaignTTLDays <= 0 {
		return fmt.Errorf("attribution ttl days must be positive")
	}
	return nil
}

func MustLoad() *AttributionConfig {

	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv(configPathEnv)

	if configPath == "" {
		log.Fatalf("%s was not found\n", configPathEnv)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	return cfg
}
