package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"amazon-search-service/internal/constants"

	"github.com/joho/godotenv"
)

// SearchConfig хранит настройки поискового конвейера
type SearchConfig struct {
	Site     string
	MaxPages int
	Workers  int
	// Strict: сбой страницы после исчерпания повторов прерывает весь запрос.
	// По умолчанию выключено — деградируем до частичного результата.
	Strict          bool
	CacheTTLMinutes int // 0 — кэш живет все время работы процесса
}

// FetcherConfig хранит настройки транспорта
type FetcherConfig struct {
	MaxAttempts   int
	BackoffMinMS  int
	BackoffMaxMS  int
	Parallelism   int
	RandomDelayMS int
	RateLimitRPS  float64
}

// RESTConfig хранит настройки HTTP-сервера
type RESTConfig struct {
	Port           string
	AllowedOrigins string
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ
type RabbitMQConfig struct {
	Enabled bool
	URL     string
}

type StdoutLogConfig struct {
	Level string // По умолчанию DEBUG
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string // По умолчанию INFO
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Search       SearchConfig
	Fetcher      FetcherConfig
	REST         RESTConfig
	RabbitMQ     RabbitMQConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {

	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}

	if err != nil {
		// Отсутствие .env не фатально: все обязательные значения могут
		// прийти из окружения процесса.
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = os.Getenv("APP_NAME")
	if cfg.AppName == "" {
		cfg.AppName = "amazon-search-service" // Устанавливаем default
	}

	cfg.Search.Site = getEnvAsString("AMAZON_SITE", constants.DefaultSite)
	cfg.Search.MaxPages = getEnvAsInt("SEARCH_MAX_PAGES", constants.DefaultMaxPages)
	if cfg.Search.MaxPages < 1 {
		return nil, fmt.Errorf("SEARCH_MAX_PAGES must be >= 1, got %d", cfg.Search.MaxPages)
	}
	cfg.Search.Workers = getEnvAsInt("SEARCH_WORKERS", constants.DefaultSearchWorkers)
	if cfg.Search.Workers < 1 {
		return nil, fmt.Errorf("SEARCH_WORKERS must be >= 1, got %d", cfg.Search.Workers)
	}
	cfg.Search.Strict = getEnvAsBool("SEARCH_STRICT", false)
	cfg.Search.CacheTTLMinutes = getEnvAsInt("SEARCH_CACHE_TTL_MINUTES", 0)

	cfg.Fetcher.MaxAttempts = getEnvAsInt("FETCH_MAX_ATTEMPTS", constants.DefaultFetchMaxAttempts)
	if cfg.Fetcher.MaxAttempts < 1 {
		return nil, fmt.Errorf("FETCH_MAX_ATTEMPTS must be >= 1, got %d", cfg.Fetcher.MaxAttempts)
	}
	cfg.Fetcher.BackoffMinMS = getEnvAsInt("FETCH_BACKOFF_MIN_MS", constants.DefaultFetchBackoffMinMS)
	cfg.Fetcher.BackoffMaxMS = getEnvAsInt("FETCH_BACKOFF_MAX_MS", constants.DefaultFetchBackoffMaxMS)
	if cfg.Fetcher.BackoffMaxMS < cfg.Fetcher.BackoffMinMS {
		return nil, fmt.Errorf("FETCH_BACKOFF_MAX_MS (%d) must be >= FETCH_BACKOFF_MIN_MS (%d)",
			cfg.Fetcher.BackoffMaxMS, cfg.Fetcher.BackoffMinMS)
	}
	cfg.Fetcher.Parallelism = getEnvAsInt("FETCH_PARALLELISM", constants.DefaultFetchParallelism)
	cfg.Fetcher.RandomDelayMS = getEnvAsInt("FETCH_RANDOM_DELAY_MS", constants.DefaultFetchRandomDelayMS)
	cfg.Fetcher.RateLimitRPS = getEnvAsFloat("FETCH_RATE_LIMIT_RPS", constants.DefaultFetchRateLimitRPS)

	cfg.REST.Port = getEnvAsString("REST_PORT", "8080")
	cfg.REST.AllowedOrigins = getEnvAsString("CORS_ALLOWED_ORIGINS", "*")

	// Читаем конфигурацию для RabbitMQ; брокер опционален
	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsFloat читает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valFloat, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %g\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valFloat
}
