package amazonfetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"amazon-search-service/internal/adapters/memorycache"
	"amazon-search-service/internal/core/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Сервер имитирует трехстраничную выдачу: на каждой странице десять
// контейнеров, у одного из них нет рейтинга.
func newSearchSiteServer(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()

	pageContent := func(page int) string {
		items := make([]fixtureItem, 0, 10)
		for i := 1; i <= 10; i++ {
			item := fullItem(page*100 + i)
			if i == 10 {
				item.ratingLabel = ""
			}
			items = append(items, item)
		}
		return buildResultsPage(items, "1", "2", "3", "Avanti")
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)

		assert.Equal(t, "/s", r.URL.Path)
		assert.Equal(t, "cuffie", r.URL.Query().Get("k"))

		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			fmt.Sscanf(raw, "%d", &page)
		}
		w.Write([]byte(pageContent(page)))
	}))
}

func TestRunSearchEndToEnd(t *testing.T) {
	var requests int32
	server := newSearchSiteServer(t, &requests)
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 3, 50)
	cache := memorycache.NewSearchCacheAdapter(0)
	runSearch := usecase.NewRunSearchUseCase(adapter, cache, nil, 8, false)

	result, err := runSearch.Execute(context.Background(), "cuffie")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Empty(t, result.FailedPages)
	assert.False(t, result.FromCache)
	require.Len(t, result.Records, 30)

	missingRating := 0
	for _, record := range result.Records {
		assert.NotEmpty(t, record.Link)
		if record.Rating == nil {
			missingRating++
		}
	}
	assert.Equal(t, 3, missingRating)

	// Страница глубины + три страницы выдачи
	assert.Equal(t, int32(4), atomic.LoadInt32(&requests))
}

func TestRunSearchEndToEndServesRepeatFromCache(t *testing.T) {
	var requests int32
	server := newSearchSiteServer(t, &requests)
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 3, 50)
	cache := memorycache.NewSearchCacheAdapter(0)
	runSearch := usecase.NewRunSearchUseCase(adapter, cache, nil, 8, false)

	first, err := runSearch.Execute(context.Background(), "cuffie")
	require.NoError(t, err)
	requestsAfterFirst := atomic.LoadInt32(&requests)

	second, err := runSearch.Execute(context.Background(), "cuffie")
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Records, second.Records)
	// Повторный идентичный запрос не ходит в сеть
	assert.Equal(t, requestsAfterFirst, atomic.LoadInt32(&requests))
}

func TestRunSearchEndToEndPoolSizeDoesNotChangeResult(t *testing.T) {
	var requests int32
	server := newSearchSiteServer(t, &requests)
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, 3, 50)

	sequential := usecase.NewRunSearchUseCase(adapter, memorycache.NewSearchCacheAdapter(0), nil, 1, false)
	parallel := usecase.NewRunSearchUseCase(adapter, memorycache.NewSearchCacheAdapter(0), nil, 8, false)

	sequentialResult, err := sequential.Execute(context.Background(), "cuffie")
	require.NoError(t, err)
	parallelResult, err := parallel.Execute(context.Background(), "cuffie")
	require.NoError(t, err)

	assert.Equal(t, sequentialResult.Records, parallelResult.Records)
}
