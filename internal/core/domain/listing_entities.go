package domain

import "time"

// ListingRecord - одна карточка товара из поисковой выдачи.
// Опциональные поля — указатели: nil означает "поле отсутствует в разметке",
// а не нулевое значение.
type ListingRecord struct {
	// ASIN - идентификатор товара (атрибут data-asin контейнера).
	// Пустая строка означает, что идентификатор отсутствует.
	ASIN  string
	Title string
	// Link строится детерминированно из ASIN; пустая строка, если ASIN нет.
	Link     string
	ImageURL *string

	Price       *float64
	Rating      *float64
	ReviewCount *int
}

// SearchResult - итог одного поискового запроса: количество страниц,
// плоский список записей и номера страниц, которые не удалось получить.
type SearchResult struct {
	Query       string
	Pages       int
	Records     []ListingRecord
	FailedPages []int

	// FromCache выставляется слоем use case при выдаче мемоизированного результата.
	FromCache bool
	Duration  time.Duration
}
