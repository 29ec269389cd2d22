package port

import (
	"amazon-search-service/internal/core/domain"
)

// SearchCachePort - мемоизация результатов по точной строке запроса.
type SearchCachePort interface {
	Get(query string) (*domain.SearchResult, bool)

	// SetIfAbsent записывает результат, только если ключа еще нет
	// (первый писатель побеждает). Возвращает true, если запись произошла.
	SetIfAbsent(query string, result *domain.SearchResult) bool
}
