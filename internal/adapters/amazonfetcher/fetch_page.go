package amazonfetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"amazon-search-service/internal/constants"
	"amazon-search-service/internal/contextkeys"
	"amazon-search-service/internal/core/domain"
	"amazon-search-service/internal/core/port"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// DiscoverPageCount запрашивает первую страницу выдачи и возвращает число
// страниц по последнему числовому индикатору пагинации. Выдача без
// пагинации считается одностраничной.
func (a *AmazonFetcherAdapter) DiscoverPageCount(ctx context.Context, query string) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	pagerLogger := logger.WithFields(port.Fields{"component": "AmazonFetcherAdapter(DiscoverPageCount)"})

	targetURL := a.searchURL(query)
	body, err := a.fetchPage(ctx, targetURL)
	if err != nil {
		return 0, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("amazon fetcher: failed to parse first results page: %w", err)
	}

	pages := 1
	doc.Find(constants.SelectorPaginationItem).Each(func(_ int, item *goquery.Selection) {
		// Хвостовые элементы навигации ("Avanti") числами не являются,
		// поэтому побеждает последний числовой индикатор.
		if n, convErr := strconv.Atoi(strings.TrimSpace(item.Text())); convErr == nil && n > 0 {
			pages = n
		}
	})

	if pages > a.cfg.MaxPages {
		pagerLogger.Warn("Page count exceeds configured limit, clamping", port.Fields{
			"discovered": pages,
			"max_pages":  a.cfg.MaxPages,
		})
		pages = a.cfg.MaxPages
	}

	pagerLogger.Debug("Discovered page count", port.Fields{"pages": pages})
	return pages, nil
}

// FetchSearchPage скачивает одну страницу выдачи и разбирает ее в доменные
// записи. Страница без единого контейнера результатов - легитимный случай
// (пустая выдача или антибот-заглушка): он логируется и дает ноль записей.
func (a *AmazonFetcherAdapter) FetchSearchPage(ctx context.Context, query string, page int) ([]domain.ListingRecord, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	pageLogger := logger.WithFields(port.Fields{"component": "AmazonFetcherAdapter(FetchSearchPage)"})

	targetURL := a.searchPageURL(query, page)
	body, err := a.fetchPage(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	records, err := extractListings(body, a.cfg.BaseURL, page, pageLogger)
	if err != nil {
		var structuralErr *domain.StructuralParseError
		if errors.As(err, &structuralErr) {
			pageLogger.Error("No result containers found in page", err, port.Fields{
				"url":          targetURL,
				"page_excerpt": truncate(visibleText(body), 300),
			})
			return []domain.ListingRecord{}, nil
		}
		return nil, err
	}

	pageLogger.Debug("Page processed", port.Fields{"page": page, "records": len(records)})
	return records, nil
}

// fetchPage выполняет GET с бюджетом повторов: сетевые сбои и любые не-2xx
// статусы повторяются со случайной паузой, и только исчерпание бюджета
// отдает ошибку наружу.
func (a *AmazonFetcherAdapter) fetchPage(ctx context.Context, targetURL string) ([]byte, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchLogger := logger.WithFields(port.Fields{"component": "AmazonFetcherAdapter(fetchPage)", "url": targetURL})

	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Общий темп держит лимитер, а не воркеры по отдельности
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := a.visit(targetURL)
		if err == nil {
			if attempt > 1 {
				fetchLogger.Info("Fetch succeeded after retry", port.Fields{"attempt": attempt})
			}
			return body, nil
		}

		lastErr = err
		fetchLogger.Warn("Fetch attempt failed", port.Fields{
			"attempt":      attempt,
			"max_attempts": a.cfg.MaxAttempts,
			"error":        err.Error(),
		})

		if attempt < a.cfg.MaxAttempts {
			a.sleepBackoff(ctx)
		}
	}

	return nil, &domain.TransientFetchError{URL: targetURL, Attempts: a.cfg.MaxAttempts, Cause: lastErr}
}

// visit - одна попытка: клон родительского коллектора с перехватом тела и
// ошибки. Клон наследует лимиты и список разрешенных доменов, но колбэки
// у него свои, поэтому ротация User-Agent вешается именно здесь.
func (a *AmazonFetcherAdapter) visit(targetURL string) ([]byte, error) {
	collector := a.collector.Clone()

	extensions.RandomUserAgent(collector) // На каждый запрос подставляется User-Agent реального браузера
	extensions.Referer(collector)         // Автоматически подставляет заголовок Referer, имитируя навигацию

	var body []byte
	var responseErr error

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", constants.HeaderAccept)
		r.Headers.Set("Accept-Language", constants.HeaderAcceptLanguage)
	})

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	collector.OnError(func(r *colly.Response, err error) {
		// Сайт отдает страницы ошибок в HTML; наружу уходит их видимый
		// текст, а не разметка.
		if r != nil && len(r.Body) > 0 {
			if text := visibleText(r.Body); text != "" {
				responseErr = fmt.Errorf("status %d: %s", r.StatusCode, truncate(text, 300))
				return
			}
		}
		responseErr = err
	})

	visitErr := collector.Visit(targetURL)
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}
	if visitErr != nil {
		return nil, fmt.Errorf("amazon fetcher: failed to visit URL %s: %w", targetURL, visitErr)
	}
	return body, nil
}
