package domain

// SearchRunStats - сводка по завершенному поиску для отчета во внешнюю систему.
type SearchRunStats struct {
	Query        string
	Pages        int // Количество страниц после ограничения максимумом
	PagesFailed  int
	RecordsFound int
	FromCache    bool
	DurationMS   int64
}
