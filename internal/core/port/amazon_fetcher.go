package port

import (
	"context"

	"amazon-search-service/internal/core/domain"
)

// AmazonFetcherPort определяет контракт для получения и разбора страниц выдачи
type AmazonFetcherPort interface {
	// DiscoverPageCount загружает первую страницу выдачи и возвращает
	// количество страниц в диапазоне [1, MaxPages].
	DiscoverPageCount(ctx context.Context, query string) (int, error)

	// FetchSearchPage загружает одну страницу выдачи и извлекает из нее записи.
	// Страница без контейнеров — это пустой срез, а не ошибка.
	FetchSearchPage(ctx context.Context, query string, page int) ([]domain.ListingRecord, error)
}
