package port

import (
	"context"

	"amazon-search-service/internal/core/domain"
)

// SearchReporterPort - отправка сводки о завершенном поиске во внешнюю систему.
type SearchReporterPort interface {
	ReportCompleted(ctx context.Context, stats *domain.SearchRunStats) error
}
