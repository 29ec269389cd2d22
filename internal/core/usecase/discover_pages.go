package usecase

import (
	"context"
	"fmt"
	"strings"

	"amazon-search-service/internal/contextkeys"
	"amazon-search-service/internal/core/port"
)

// DiscoverPagesUseCase отвечает на вопрос "сколько страниц выдачи у запроса",
// не скачивая сами результаты.
type DiscoverPagesUseCase struct {
	fetcherRepo port.AmazonFetcherPort
}

// NewDiscoverPagesUseCase создает новый экземпляр DiscoverPagesUseCase
func NewDiscoverPagesUseCase(fetcherRepo port.AmazonFetcherPort) *DiscoverPagesUseCase {
	return &DiscoverPagesUseCase{
		fetcherRepo: fetcherRepo,
	}
}

func (uc *DiscoverPagesUseCase) Execute(ctx context.Context, query string) (int, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "DiscoverPages",
		"query":    query,
	})

	if strings.TrimSpace(query) == "" {
		return 0, fmt.Errorf("use case: query must not be empty")
	}

	pages, err := uc.fetcherRepo.DiscoverPageCount(ctx, query)
	if err != nil {
		ucLogger.Error("Failed to discover page count", err, nil)
		return 0, fmt.Errorf("use case: error discovering pages for query '%s': %w", query, err)
	}

	ucLogger.Info("Page count discovered", port.Fields{"pages": pages})
	return pages, nil
}
