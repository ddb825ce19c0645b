// Package config загружает конфигурацию из переменных окружения.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shaiso/Postomat/internal/domain"
)

// Config — конфигурация всех бинарников. Каждый использует своё
// подмножество полей; обязателен только доступ к БД и токен бота.
type Config struct {
	// Telegram
	BotToken string `env:"BOT_TOKEN" env-required:"true"`

	// VK. Пустой токен отключает публикацию в VK.
	VKToken   string `env:"VK_TOKEN"`
	VKGroupID int64  `env:"VK_GROUP_ID"`

	// Хранилище и брокер. Пустой AMQP_URL отключает события.
	DatabaseURL string `env:"DB_URL" env-required:"true"`
	AMQPURL     string `env:"AMQP_URL"`

	// HTTP: /healthz + /metrics (для бота) либо admin API.
	HTTPAddr string `env:"HTTP_ADDR" env-default:":8080"`

	// Планирование.
	DefaultTZOffset      string `env:"DEFAULT_TZ_OFFSET" env-default:"+03:00"`
	DispatchIntervalSec  int    `env:"DISPATCH_INTERVAL_SEC" env-default:"30"`
	DispatchTimeoutSec   int    `env:"DISPATCH_TIMEOUT_SEC" env-default:"30"`
	RegistrationQueueCap int    `env:"REGISTRATION_QUEUE_CAP" env-default:"10"`
	HistoryLimit         int    `env:"HISTORY_LIMIT" env-default:"10"`

	// Логирование.
	LogLevel  string `env:"LOG_LEVEL" env-default:"INFO"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`
}

// Load читает окружение и валидирует значения. Некорректная
// конфигурация — причина не стартовать, а не работать вполсилы.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность конфигурации.
func (c *Config) Validate() error {
	if _, err := domain.ParseOffset(c.DefaultTZOffset); err != nil {
		return fmt.Errorf("DEFAULT_TZ_OFFSET %q: %w", c.DefaultTZOffset, err)
	}
	if c.DispatchIntervalSec <= 0 {
		return fmt.Errorf("DISPATCH_INTERVAL_SEC must be positive, got %d", c.DispatchIntervalSec)
	}
	if c.DispatchTimeoutSec <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT_SEC must be positive, got %d", c.DispatchTimeoutSec)
	}
	if c.RegistrationQueueCap <= 0 {
		return fmt.Errorf("REGISTRATION_QUEUE_CAP must be positive, got %d", c.RegistrationQueueCap)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.VKToken != "" && c.VKGroupID == 0 {
		return fmt.Errorf("VK_GROUP_ID is required when VK_TOKEN is set")
	}
	return nil
}

// DefaultOffsetMin возвращает смещение по умолчанию в минутах.
// Вызывается после Validate, поэтому ошибка разбора невозможна.
func (c *Config) DefaultOffsetMin() int {
	offset, _ := domain.ParseOffset(c.DefaultTZOffset)
	return offset
}

// DispatchInterval — период тиков диспетчера.
func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.DispatchIntervalSec) * time.Second
}

// DispatchTimeout — бюджет одной доставки.
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchTimeoutSec) * time.Second
}
