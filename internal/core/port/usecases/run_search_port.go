package usecases_port

import (
	"context"

	"amazon-search-service/internal/core/domain"
)

type RunSearchPort interface {
	Execute(ctx context.Context, query string) (*domain.SearchResult, error)
}
