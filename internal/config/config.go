package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	DSN         string            `yaml:"dsn" env:"DSN" env-required:"true"`
	Token       TokenConfig       `yaml:"token"`
	HTTP        HTTPConfig        `yaml:"http"`
	FileStorage FileStorageConfig `yaml:"file_storage"`
	Redis       RedisConf         `yaml:"redis"`
	Gallery     GalleryConfig     `yaml:"gallery"`
}

type TokenConfig struct {
	Secret     string        `yaml:"secret" env:"TOKEN_SECRET" env-required:"true"`
	AccessTTL  time.Duration `yaml:"access_ttl" env-default:"24h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"5000"`
}

type FileStorageConfig struct {
	BaseDir      string `yaml:"base_dir" env-default:"./uploads"`
	GeneratedDir string `yaml:"generated_dir" env-default:"./generated"`
	BaseURL      string `yaml:"base_url" env-default:"/uploads"`
	MaxSize      int64  `yaml:"max_size" env-default:"10485760"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redispassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"`
}

type GalleryConfig struct {
	CacheTTL      time.Duration `yaml:"cache_ttl" env-default:"30s"`
	ListLimit     uint64        `yaml:"list_limit" env-default:"100"`
	UserListLimit uint64        `yaml:"user_list_limit" env-default:"50"`
	LikeRateLimit float64       `yaml:"like_rate_limit" env-default:"5"`
	LikeBurst     int           `yaml:"like_burst" env-default:"10"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
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
