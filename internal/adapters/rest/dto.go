package rest

import (
	"amazon-search-service/internal/core/domain"
)

// ListingDTO - представление одной записи выдачи для внешнего слоя.
// Опциональные поля отдаются как null, а не как нулевые значения.
type ListingDTO struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Link        string   `json:"link,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// SearchResponseDTO - ответ на полный поиск
type SearchResponseDTO struct {
	Query       string       `json:"query"`
	Pages       int          `json:"pages"`
	Records     []ListingDTO `json:"records"`
	FailedPages []int        `json:"failed_pages,omitempty"`
	FromCache   bool         `json:"from_cache"`
	DurationMS  int64        `json:"duration_ms"`
}

// PagesResponseDTO - ответ на запрос глубины выдачи
type PagesResponseDTO struct {
	Query string `json:"query"`
	Pages int    `json:"pages"`
}

func toListingDTO(record domain.ListingRecord) ListingDTO {
	return ListingDTO{
		ID:          record.ASIN,
		Title:       record.Title,
		Link:        record.Link,
		ImageURL:    record.ImageURL,
		Price:       record.Price,
		Rating:      record.Rating,
		ReviewCount: record.ReviewCount,
	}
}

func toSearchResponseDTO(result *domain.SearchResult) *SearchResponseDTO {
	records := make([]ListingDTO, 0, len(result.Records))
	for _, record := range result.Records {
		records = append(records, toListingDTO(record))
	}

	return &SearchResponseDTO{
		Query:       result.Query,
		Pages:       result.Pages,
		Records:     records,
		FailedPages: result.FailedPages,
		FromCache:   result.FromCache,
		DurationMS:  result.Duration.Milliseconds(),
	}
}
