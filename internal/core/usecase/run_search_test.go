package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"amazon-search-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher отдает заранее подготовленные страницы без похода в сеть.
type stubFetcher struct {
	mu            sync.Mutex
	pages         int
	discoverErr   error
	perPage       map[int][]domain.ListingRecord
	failPages     map[int]error
	onFetch       func(page int) // хук на каждое скачивание страницы
	discoverCalls int
	fetchCalls    int
}

func pageRecords(page, count int) []domain.ListingRecord {
	records := make([]domain.ListingRecord, 0, count)
	for i := 1; i <= count; i++ {
		asin := fmt.Sprintf("B%03dP%04d", page, i)
		records = append(records, domain.ListingRecord{
			ASIN:  asin,
			Title: fmt.Sprintf("Prodotto %d della pagina %d", i, page),
			Link:  "https://www.amazon.it/dp/" + asin,
		})
	}
	return records
}

func newStubFetcher(pages, recordsPerPage int) *stubFetcher {
	perPage := make(map[int][]domain.ListingRecord, pages)
	for page := 1; page <= pages; page++ {
		perPage[page] = pageRecords(page, recordsPerPage)
	}
	return &stubFetcher{
		pages:     pages,
		perPage:   perPage,
		failPages: make(map[int]error),
	}
}

func (f *stubFetcher) DiscoverPageCount(ctx context.Context, query string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discoverCalls++
	if f.discoverErr != nil {
		return 0, f.discoverErr
	}
	return f.pages, nil
}

func (f *stubFetcher) FetchSearchPage(ctx context.Context, query string, page int) ([]domain.ListingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.onFetch != nil {
		f.onFetch(page)
	}
	if err, failed := f.failPages[page]; failed {
		return nil, err
	}
	return f.perPage[page], nil
}

// stubCache - простейшая реализация кэша для проверки мемоизации.
type stubCache struct {
	entries map[string]*domain.SearchResult
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*domain.SearchResult)}
}

func (c *stubCache) Get(query string) (*domain.SearchResult, bool) {
	result, found := c.entries[query]
	return result, found
}

func (c *stubCache) SetIfAbsent(query string, result *domain.SearchResult) bool {
	if _, found := c.entries[query]; found {
		return false
	}
	c.entries[query] = result
	c.sets++
	return true
}

type stubReporter struct {
	mu    sync.Mutex
	calls int
	last  *domain.SearchRunStats
}

func (r *stubReporter) ReportCompleted(ctx context.Context, stats *domain.SearchRunStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = stats
	return nil
}

func expectedRecords(pages, perPage int) []domain.ListingRecord {
	var all []domain.ListingRecord
	for page := 1; page <= pages; page++ {
		all = append(all, pageRecords(page, perPage)...)
	}
	return all
}

func TestRunSearchAggregatesPagesInOrder(t *testing.T) {
	fetcher := newStubFetcher(3, 2)
	uc := NewRunSearchUseCase(fetcher, newStubCache(), nil, 8, false)

	result, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Empty(t, result.FailedPages)
	assert.False(t, result.FromCache)
	// Порядок страниц сохраняется независимо от того, какой воркер
	// закончил первым
	assert.Equal(t, expectedRecords(3, 2), result.Records)
}

func TestRunSearchPoolSizeDoesNotChangeResult(t *testing.T) {
	sequential := NewRunSearchUseCase(newStubFetcher(5, 3), newStubCache(), nil, 1, false)
	parallel := NewRunSearchUseCase(newStubFetcher(5, 3), newStubCache(), nil, 8, false)

	sequentialResult, err := sequential.Execute(context.Background(), "tastiera")
	require.NoError(t, err)
	parallelResult, err := parallel.Execute(context.Background(), "tastiera")
	require.NoError(t, err)

	assert.Equal(t, sequentialResult.Records, parallelResult.Records)
}

func TestRunSearchPartialFailureKeepsHealthyPages(t *testing.T) {
	fetcher := newStubFetcher(3, 2)
	fetcher.failPages[2] = &domain.TransientFetchError{URL: "page-2", Attempts: 3, Cause: errors.New("status 503")}

	uc := NewRunSearchUseCase(fetcher, newStubCache(), nil, 4, false)

	result, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)

	var want []domain.ListingRecord
	want = append(want, pageRecords(1, 2)...)
	want = append(want, pageRecords(3, 2)...)

	assert.Equal(t, want, result.Records)
	assert.Equal(t, []int{2}, result.FailedPages)
}

func TestRunSearchStrictModeAbortsOnPageFailure(t *testing.T) {
	fetcher := newStubFetcher(3, 2)
	fetcher.failPages[2] = &domain.TransientFetchError{URL: "page-2", Attempts: 3, Cause: errors.New("status 503")}

	cache := newStubCache()
	uc := NewRunSearchUseCase(fetcher, cache, nil, 4, true)

	result, err := uc.Execute(context.Background(), "cuffie")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "pages failed")

	// Первопричина остается доступной для маппинга на границе
	var fetchErr *domain.TransientFetchError
	assert.True(t, errors.As(err, &fetchErr))

	// Оборванный строгий прогон не попадает в кэш
	assert.Zero(t, cache.sets)
}

func TestRunSearchServesRepeatFromCache(t *testing.T) {
	fetcher := newStubFetcher(2, 2)
	cache := newStubCache()
	uc := NewRunSearchUseCase(fetcher, cache, nil, 4, false)

	first, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Records, second.Records)
	// Повторный запрос не трогает транспорт
	assert.Equal(t, 1, fetcher.discoverCalls)
	assert.Equal(t, 2, fetcher.fetchCalls)
	assert.Equal(t, 1, cache.sets)
}

func TestRunSearchCanceledRunIsNotMemoized(t *testing.T) {
	fetcher := newStubFetcher(3, 2)
	cache := newStubCache()
	uc := NewRunSearchUseCase(fetcher, cache, nil, 1, false)

	// Клиент отваливается сразу после первой страницы
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher.onFetch = func(page int) {
		if page == 1 {
			cancel()
		}
	}

	first, err := uc.Execute(ctx, "cuffie")
	require.NoError(t, err)
	assert.Equal(t, pageRecords(1, 2), first.Records)
	assert.Equal(t, []int{2, 3}, first.FailedPages)

	// Урезанный обрывом результат не оседает в кэше
	assert.Zero(t, cache.sets)

	// Повтор с живым контекстом скачивает выдачу целиком, а не отдает огрызок
	fetcher.onFetch = nil
	second, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.Empty(t, second.FailedPages)
	assert.Equal(t, expectedRecords(3, 2), second.Records)
	assert.Equal(t, 2, fetcher.discoverCalls)
	assert.Equal(t, 4, fetcher.fetchCalls)
	assert.Equal(t, 1, cache.sets)
}

func TestRunSearchDifferentQueriesAreNotShared(t *testing.T) {
	fetcher := newStubFetcher(1, 2)
	cache := newStubCache()
	uc := NewRunSearchUseCase(fetcher, cache, nil, 4, false)

	_, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)
	_, err = uc.Execute(context.Background(), "cuffie bluetooth")
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.discoverCalls)
	assert.Equal(t, 2, cache.sets)
}

func TestRunSearchRejectsEmptyQuery(t *testing.T) {
	fetcher := newStubFetcher(1, 1)
	uc := NewRunSearchUseCase(fetcher, newStubCache(), nil, 4, false)

	for _, query := range []string{"", "   "} {
		_, err := uc.Execute(context.Background(), query)
		require.Error(t, err, "query: %q", query)
	}
	assert.Zero(t, fetcher.discoverCalls)
}

func TestRunSearchPropagatesDiscoveryFailure(t *testing.T) {
	fetcher := newStubFetcher(3, 2)
	fetcher.discoverErr = &domain.TransientFetchError{URL: "first-page", Attempts: 3, Cause: errors.New("status 500")}

	uc := NewRunSearchUseCase(fetcher, newStubCache(), nil, 4, false)

	_, err := uc.Execute(context.Background(), "cuffie")
	require.Error(t, err)

	var fetchErr *domain.TransientFetchError
	assert.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetcher.fetchCalls)
}

func TestRunSearchReportsCompletionOnce(t *testing.T) {
	fetcher := newStubFetcher(3, 2)
	fetcher.failPages[2] = &domain.TransientFetchError{URL: "page-2", Attempts: 3, Cause: errors.New("status 503")}

	reporter := &stubReporter{}
	uc := NewRunSearchUseCase(fetcher, newStubCache(), reporter, 4, false)

	_, err := uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)

	require.Equal(t, 1, reporter.calls)
	assert.Equal(t, "cuffie", reporter.last.Query)
	assert.Equal(t, 3, reporter.last.Pages)
	assert.Equal(t, 1, reporter.last.PagesFailed)
	assert.Equal(t, 4, reporter.last.RecordsFound)
	assert.False(t, reporter.last.FromCache)

	// Ответ из кэша не порождает новую сводку
	_, err = uc.Execute(context.Background(), "cuffie")
	require.NoError(t, err)
	assert.Equal(t, 1, reporter.calls)
}
