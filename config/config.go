package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	Ops struct {
		Port int // Порт служебного HTTP-сервера (/healthz, /metrics)
	}
	DB struct {
		Driver         string // postgres или sqlite
		Host           string
		Port           int
		User           string
		Password       string
		DBName         string
		SQLitePath     string
		MigrationsPath string
		AutoMigrate    bool
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	SMTP struct {
		Enabled  bool
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	RateLimit struct {
		Requests int
		Window   time.Duration
	}
	CBR struct {
		URL     string // Веб-сервис ЦБ для ключевой ставки
		Timeout time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
	CORS struct {
		AllowedOrigins []string
	}
	Admin struct {
		// Первый суперпользователь; создается, если заданы все три поля
		ID       string
		Email    string
		Password string
	}
}

// HasAdmin сообщает, задан ли суперпользователь для первичной настройки
func (c *Config) HasAdmin() bool {
	return c.Admin.ID != "" && c.Admin.Email != "" && c.Admin.Password != ""
}

// NewConfig загружает конфигурацию из .env, переменных окружения и config.yaml
func NewConfig() (*Config, error) {
	// .env не обязателен
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения config.yaml: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("ops.port", 9090)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "credits_db")
	v.SetDefault("db.sqlite_path", "credits.db")
	v.SetDefault("db.migrations_path", "migrations")
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("jwt.secret_key", "your-secret-key-here")
	v.SetDefault("jwt.expires_in", 24)

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@example.com")

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("cbr.url", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx")
	v.SetDefault("cbr.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("admin.id", "")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Server.Port = v.GetInt("server.port")
	cfg.Ops.Port = v.GetInt("ops.port")

	cfg.DB.Driver = strings.ToLower(v.GetString("db.driver"))
	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetInt("db.port")
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.name")
	cfg.DB.SQLitePath = v.GetString("db.sqlite_path")
	cfg.DB.MigrationsPath = v.GetString("db.migrations_path")
	cfg.DB.AutoMigrate = v.GetBool("db.auto_migrate")

	cfg.JWT.SecretKey = v.GetString("jwt.secret_key")
	cfg.JWT.ExpiresIn = v.GetInt("jwt.expires_in")

	cfg.SMTP.Enabled = v.GetBool("smtp.enabled")
	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")

	cfg.RateLimit.Requests = v.GetInt("rate_limit.requests")
	cfg.RateLimit.Window = v.GetDuration("rate_limit.window")

	cfg.CBR.URL = v.GetString("cbr.url")
	cfg.CBR.Timeout = v.GetDuration("cbr.timeout")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	cfg.CORS.AllowedOrigins = v.GetStringSlice("cors.allowed_origins")

	cfg.Admin.ID = v.GetString("admin.id")
	cfg.Admin.Email = v.GetString("admin.email")
	cfg.Admin.Password = v.GetString("admin.password")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("неверный порт сервера: %d", c.Server.Port)
	}
	if c.Ops.Port <= 0 {
		return fmt.Errorf("неверный порт служебного сервера: %d", c.Ops.Port)
	}
	switch c.DB.Driver {
	case "postgres":
		if c.DB.Port <= 0 {
			return fmt.Errorf("неверный порт базы данных: %d", c.DB.Port)
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return errors.New("не задан путь к файлу sqlite")
		}
	default:
		return fmt.Errorf("неизвестный драйвер базы данных: %q", c.DB.Driver)
	}
	if c.JWT.SecretKey == "" {
		return errors.New("не задан секрет JWT")
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("неверное время жизни JWT: %d", c.JWT.ExpiresIn)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("лимит запросов и окно должны быть положительными")
	}
	return nil
}

// TokenTTL возвращает время жизни JWT токена
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpiresIn) * time.Hour
}
