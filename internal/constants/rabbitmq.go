package constants

const SearchExchange = "search_exchange"

// Ключи маршрутизации
const (
	RoutingKeySearchCompleted = "search.results.completed"
)

// Метаданные событий
const (
	EventTypeSearchCompleted = "SearchCompletedEvent"
	EventVersion             = "1.0.0"
)
