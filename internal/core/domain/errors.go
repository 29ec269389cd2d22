package domain

import "fmt"

// TransientFetchError - сетевая или HTTP ошибка, пережившая весь бюджет повторов.
// Наружу выходит только после исчерпания попыток; дальше повторять нельзя.
type TransientFetchError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts for %s: %v", e.Attempts, e.URL, e.Cause)
}

func (e *TransientFetchError) Unwrap() error { return e.Cause }

// StructuralParseError - на странице нет ожидаемой структуры (ни одного
// контейнера выдачи). Не фатальна: страница дает ноль записей.
type StructuralParseError struct {
	Page   int
	Reason string
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("page %d has no expected structure: %s", e.Page, e.Reason)
}

// RecordParseError - неожиданный сбой при сборке одной записи.
// Запись пропускается, содержимое контейнера сохраняется для диагностики.
type RecordParseError struct {
	Reason    string
	Container string
}

func (e *RecordParseError) Error() string {
	return fmt.Sprintf("failed to process container: %s", e.Reason)
}
