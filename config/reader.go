package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DBConfig - параметры подключения к реляционной базе (пользователи и токены)
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
}

type ConfigSchema struct {
	Databases struct {
		// Driver: postgres или sqlite
		Driver   string     `yaml:"driver"`
		Path     string     `yaml:"path"`
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"db"`
	Mongo struct {
		URI        string `yaml:"uri"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"mongo"`
	Posts struct {
		// Store: mongo или memory
		Store string `yaml:"store"`
	} `yaml:"posts"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"rabbitmq"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Logs struct {
		Level string `yaml:"level"`
	} `yaml:"logs"`
}

// Default возвращает конфигурацию для локального запуска без внешних сервисов
func Default() *ConfigSchema {
	conf := &ConfigSchema{}
	conf.Databases.Driver = "sqlite"
	conf.Databases.Path = "socialposts.db"
	conf.Databases.Master.Port = 5432
	conf.Mongo.Database = "socialposts"
	conf.Mongo.Collection = "posts"
	conf.Posts.Store = "memory"
	conf.Redis.Port = 6379
	conf.RabbitMQ.Queue = "post_activity_push"
	conf.Auth.JWTSecret = "unsecure"
	conf.Auth.TokenTTL = 5 * 24 * time.Hour
	conf.RateLimit.RPS = 20
	conf.RateLimit.Burst = 40
	conf.Backend.Port = 8080
	conf.Logs.Level = "info"
	return conf
}

// LoadConfig читает YAML-файл поверх значений по умолчанию и применяет переменные окружения.
// Отсутствующий файл не является ошибкой.
func LoadConfig(filePath string) (*ConfigSchema, error) {
	conf := Default()

	// .env опционален
	_ = godotenv.Load()

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyEnv(conf)
	return conf, nil
}

func applyEnv(conf *ConfigSchema) {
	setString(&conf.Databases.Driver, "DB_DRIVER")
	setString(&conf.Databases.Master.Host, "DB_HOST")
	setInt(&conf.Databases.Master.Port, "DB_PORT")
	setString(&conf.Databases.Master.User, "DB_USER")
	setString(&conf.Databases.Master.Password, "DB_PASSWORD")
	setString(&conf.Databases.Master.DBName, "DB_NAME")
	setString(&conf.Mongo.URI, "MONGO_URI")
	setString(&conf.Posts.Store, "POSTS_STORE")
	setString(&conf.Redis.Host, "REDIS_HOST")
	setInt(&conf.Redis.Port, "REDIS_PORT")
	setString(&conf.RabbitMQ.URL, "RABBITMQ_URL")
	setString(&conf.Auth.JWTSecret, "JWT_SECRET")
	setInt(&conf.Backend.Port, "BACKEND_PORT")
	if os.Getenv("DEBUG") == "1" {
		conf.Logs.Level = "debug"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
