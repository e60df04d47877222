package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ClientConfig настройки CLI-клиента галереи
type ClientConfig struct {
	Env            string        `yaml:"env" env:"IMAGETALES_ENV" env-default:"local"`
	BackendURL     string        `yaml:"backend_url" env:"IMAGETALES_BACKEND_URL" env-default:"http://localhost:5000"`
	StorePath      string        `yaml:"store_path" env:"IMAGETALES_STORE_PATH"`
	DownloadDir    string        `yaml:"download_dir" env:"IMAGETALES_DOWNLOAD_DIR" env-default:"."`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"IMAGETALES_REQUEST_TIMEOUT"` // 0 - таймаут транспорта по умолчанию
}

// LoadClient читает YAML, если путь задан и файл существует, затем переменные окружения
func LoadClient(configPath string) (*ClientConfig, error) {
	const op = "config.LoadClient"

	var cfg ClientConfig

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if cfg.BackendURL == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if cfg.StorePath == "" {
		cfg.StorePath = defaultStorePath()
	}

	return &cfg, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "imagetales.db"
	}
	return filepath.Join(dir, "imagetales", "local.db")
}
