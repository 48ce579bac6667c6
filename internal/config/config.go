package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"local"`
	Backend    string     `yaml:"backend" env:"APP_BACKEND" env-default:"memory"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Postgres   Postgres   `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
	JWT        JWT        `yaml:"jwt"`
	ES         ES         `yaml:"elasticsearch"`
	Minio      Minio      `yaml:"minio"`
	Sync       Sync       `yaml:"sync"`
	CORS       CORS       `yaml:"cors"`
}

type Minio struct {
	Enabled    bool          `yaml:"enabled" env:"MINIO_ENABLED"`
	Endpoint   string        `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"minio:9000"`
	AccessKey  string        `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey  string        `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL     bool          `yaml:"use_ssl" env:"MINIO_USE_SSL"`
	Bucket     string        `yaml:"bucket" env-default:"lesson-media"`
	PresignTTL time.Duration `yaml:"presign_ttl" env-default:"168h"`
}

type ES struct {
	Enabled  bool     `yaml:"enabled" env:"ES_ENABLED"`
	Hosts    []string `yaml:"hosts"`
	Index    string   `yaml:"index" env-default:"lessons"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password" env:"ES_PASSWORD"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"redis:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"lesson-changes"`
}

type JWT struct {
	SecretKey string `yaml:"secret_key" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env-default:"cam-app"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER"`
	Password string `yaml:"password" env:"PG_PASSWORD"`
	DBName   string `yaml:"dbname" env:"PG_DB"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Sync struct {
	// UploadDir holds files received over HTTP until their upload finishes.
	UploadDir     string        `yaml:"upload_dir" env-default:""`
	// FilesDir stores uploaded media when MinIO is disabled.
	FilesDir      string        `yaml:"files_dir" env-default:"./data/files"`
	MaxUploadSize int64         `yaml:"max_upload_size" env-default:"524288000"`
	SessionTTL    time.Duration `yaml:"session_ttl" env-default:"2h"`
	Heartbeat     time.Duration `yaml:"heartbeat" env-default:"25s"`
}

type CORS struct {
	AllowOrigins []string `yaml:"allow_origins" env-default:"http://localhost:8081"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Can not read config file %s", err)
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
