package memorycache

import (
	"sync"
	"time"

	"amazon-search-service/internal/core/domain"
)

// SearchCacheAdapter - потокобезопасная мемоизация результатов поиска в
// памяти процесса. Ключ - точная строка запроса. Значение записывается
// один раз: гонка двух одинаковых запросов не перетирает уже сохраненный
// результат.
type SearchCacheAdapter struct {
	mutex   sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration // 0 - записи живут все время работы процесса

	// подменяется в тестах
	now func() time.Time
}

type cacheEntry struct {
	result   *domain.SearchResult
	storedAt time.Time
}

// NewSearchCacheAdapter - конструктор
func NewSearchCacheAdapter(ttl time.Duration) *SearchCacheAdapter {
	return &SearchCacheAdapter{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get возвращает сохраненный результат для запроса, если он есть и не протух.
func (c *SearchCacheAdapter) Get(query string) (*domain.SearchResult, bool) {
	c.mutex.RLock()
	entry, found := c.entries[query]
	c.mutex.RUnlock()

	if !found {
		return nil, false
	}

	if c.expired(entry) {
		// Ленивая уборка: протухшую запись снимаем при обращении
		c.mutex.Lock()
		if current, stillThere := c.entries[query]; stillThere && current.storedAt.Equal(entry.storedAt) {
			delete(c.entries, query)
		}
		c.mutex.Unlock()
		return nil, false
	}

	return entry.result, true
}

// SetIfAbsent сохраняет результат, только если по ключу еще пусто
// (или запись протухла). Возвращает true, если запись состоялась.
func (c *SearchCacheAdapter) SetIfAbsent(query string, result *domain.SearchResult) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, found := c.entries[query]; found && !c.expired(entry) {
		return false
	}

	c.entries[query] = cacheEntry{result: result, storedAt: c.now()}
	return true
}

func (c *SearchCacheAdapter) expired(entry cacheEntry) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(entry.storedAt) >= c.ttl
}
