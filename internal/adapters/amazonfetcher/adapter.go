package amazonfetcher

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"amazon-search-service/internal/constants"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// Config - настройки транспорта для походов на сайт выдачи.
type Config struct {
	BaseURL      string        // Схема и хост, например "https://www.amazon.it"
	MaxPages     int           // Верхняя граница числа страниц выдачи
	MaxAttempts  int           // Общий бюджет попыток на один URL (включая первую)
	BackoffMin   time.Duration // Нижняя граница паузы между повторами
	BackoffMax   time.Duration // Верхняя граница паузы между повторами
	Parallelism  int           // Параллелизм на уровне HTTP-запросов
	RandomDelay  time.Duration // Случайная задержка коллектора между запросами
	RateLimitRPS float64       // Общий потолок запросов в секунду на все воркеры
}

// AmazonFetcherAdapter отвечает за все взаимодействия с сайтом выдачи
type AmazonFetcherAdapter struct {
	// родительский коллектор, который разделяет лимиты
	collector *colly.Collector
	limiter   *rate.Limiter
	cfg       Config
}

// NewAmazonFetcherAdapter - конструктор
func NewAmazonFetcherAdapter(cfg Config) (*AmazonFetcherAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("AmazonFetcherAdapter: base URL is required")
	}
	parsedURL, err := url.Parse(cfg.BaseURL)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("AmazonFetcherAdapter: invalid base URL '%s'", cfg.BaseURL)
	}

	if cfg.MaxPages < 1 {
		cfg.MaxPages = constants.DefaultMaxPages
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = constants.DefaultFetchMaxAttempts
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = time.Duration(constants.DefaultFetchBackoffMinMS) * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = cfg.BackoffMin
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = constants.DefaultFetchParallelism
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = constants.DefaultFetchRateLimitRPS
	}

	// Сайт переадресует между голым доменом и www-вариантом; редиректы
	// ходят по умолчанию, поэтому разрешены оба хоста.
	bareHost := strings.TrimPrefix(parsedURL.Hostname(), "www.")

	// родительский коллектор
	c := colly.NewCollector(colly.AllowedDomains(bareHost, "www."+bareHost), colly.AllowURLRevisit())

	// Эти правила будут наследоваться всеми клонами коллектора
	err = c.Limit(&colly.LimitRule{
		// Правило применяется только к домену выдачи
		DomainGlob: "*" + bareHost,

		Parallelism: cfg.Parallelism,

		// случайная задержка после завершения предыдущего запроса
		RandomDelay: cfg.RandomDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("AmazonFetcherAdapter: failed to set limit rule: %w", err)
	}

	// Общий лимитер на все клоны: суммарный темп не зависит от числа воркеров
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.Parallelism)

	return &AmazonFetcherAdapter{
		collector: c,
		limiter:   limiter,
		cfg:       cfg,
	}, nil
}

// searchURL строит адрес выдачи без номера страницы (для определения глубины).
func (a *AmazonFetcherAdapter) searchURL(query string) string {
	return fmt.Sprintf(constants.SearchURLTemplate, a.cfg.BaseURL, url.QueryEscape(query))
}

// searchPageURL строит адрес конкретной страницы выдачи.
func (a *AmazonFetcherAdapter) searchPageURL(query string, page int) string {
	return fmt.Sprintf("%s&%s=%d", a.searchURL(query), constants.SearchPageParam, page)
}
