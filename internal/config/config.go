package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	DSN         string            `yaml:"dsn" env:"DSN" env-required:"true"`
	AutoMigrate bool              `yaml:"auto_migrate" env:"AUTO_MIGRATE" env-default:"false"`
	JWT         JWTConfig         `yaml:"jwt"`
	HTTP        HTTPConfig        `yaml:"http"`
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	Geocoder    GeocoderConfig    `yaml:"geocoder"`
	Redis       RedisConf         `yaml:"redis"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Sweeper     SweeperConfig     `yaml:"sweeper"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

type HTTPConfig struct {
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout       time.Duration `yaml:"timeout" env-default:"30s"`
	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET" env-default:"polaroida"`

	// разрешённые Origin для CORS и WebSocket, свой хост разрешён всегда
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

// ObjectStoreConfig описывает хранилище загруженных фотографий.
// Driver: local | s3 | minio
type ObjectStoreConfig struct {
	Driver        string `yaml:"driver" env:"OBJECT_STORE_DRIVER" env-default:"local"`
	BaseDir       string `yaml:"base_dir" env-default:"./uploads"`
	PublicBaseURL string `yaml:"public_base_url" env:"OBJECT_STORE_PUBLIC_URL" env-default:"http://localhost:8080/uploads"`
	Endpoint      string `yaml:"endpoint" env:"OBJECT_STORE_ENDPOINT"`
	Region        string `yaml:"region" env-default:"auto"`
	Bucket        string `yaml:"bucket" env:"OBJECT_STORE_BUCKET" env-default:"photos"`
	AccessKey     string `yaml:"access_key" env:"OBJECT_STORE_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"OBJECT_STORE_SECRET_KEY"`
	UseSSL        bool   `yaml:"use_ssl" env-default:"true"`
}

type GeocoderConfig struct {
	BaseURL   string        `yaml:"base_url" env-default:"https://nominatim.openstreetmap.org"`
	UserAgent string        `yaml:"user_agent" env-default:"Polaroida/1.0"`
	Timeout   time.Duration `yaml:"timeout" env-default:"5s"`
	CacheTTL  time.Duration `yaml:"cache_ttl" env-default:"24h"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

type IngestConfig struct {
	ExifFallback     bool  `yaml:"exif_fallback" env-default:"true"`
	MaxUploadBytes   int64 `yaml:"max_upload_bytes" env-default:"20971520"`
	UploadsPerMinute int   `yaml:"uploads_per_minute" env-default:"30"`
}

type SweeperConfig struct {
	Enabled     bool          `yaml:"enabled" env-default:"false"`
	Schedule    string        `yaml:"schedule" env-default:"0 30 3 * * *"`
	GracePeriod time.Duration `yaml:"grace_period" env-default:"24h"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// LoadPath читает yaml-конфиг, переменные окружения перекрывают значения из файла.
func LoadPath(configPath string) (*Config, error) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &os.PathError{Op: "config", Path: configPath, Err: os.ErrNotExist}
	}

	// .env не обязателен, поэтому ошибку игнорируем
	_ = godotenv.Load()

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
