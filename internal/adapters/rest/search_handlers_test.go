package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"amazon-search-service/internal/contextkeys"
	"amazon-search-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunSearch struct {
	result   *domain.SearchResult
	err      error
	gotQuery string
}

func (s *stubRunSearch) Execute(ctx context.Context, query string) (*domain.SearchResult, error) {
	s.gotQuery = query
	return s.result, s.err
}

type stubDiscoverPages struct {
	pages int
	err   error
}

func (s *stubDiscoverPages) Execute(ctx context.Context, query string) (int, error) {
	return s.pages, s.err
}

func sampleResult() *domain.SearchResult {
	price := 22.99
	rating := 4.3
	reviews := 1234
	image := "https://images.example/1.jpg"

	return &domain.SearchResult{
		Query: "cuffie",
		Pages: 2,
		Records: []domain.ListingRecord{
			{
				ASIN:        "B0TESTA001",
				Title:       "Cuffie Bluetooth",
				Link:        "https://www.amazon.it/dp/B0TESTA001",
				ImageURL:    &image,
				Price:       &price,
				Rating:      &rating,
				ReviewCount: &reviews,
			},
			{
				Title: "Prodotto senza identificatore",
			},
		},
		Duration: 1500 * time.Millisecond,
	}
}

func TestRunSearchHandlerOK(t *testing.T) {
	runSearch := &stubRunSearch{result: sampleResult()}
	handler := NewSearchHandler(runSearch, &stubDiscoverPages{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=cuffie", nil)
	rec := httptest.NewRecorder()

	handler.RunSearch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "cuffie", runSearch.gotQuery)

	var response SearchResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "cuffie", response.Query)
	assert.Equal(t, 2, response.Pages)
	assert.False(t, response.FromCache)
	assert.Equal(t, int64(1500), response.DurationMS)
	require.Len(t, response.Records, 2)

	first := response.Records[0]
	assert.Equal(t, "B0TESTA001", first.ID)
	require.NotNil(t, first.Price)
	assert.InDelta(t, 22.99, *first.Price, 1e-9)
	require.NotNil(t, first.Rating)
	assert.InDelta(t, 4.3, *first.Rating, 1e-9)

	// Отсутствующие поля отдаются как null/отсутствие, а не как нули
	second := response.Records[1]
	assert.Empty(t, second.ID)
	assert.Nil(t, second.Price)
	assert.Nil(t, second.Rating)
	assert.Nil(t, second.ReviewCount)
}

func TestRunSearchHandlerRequiresQuery(t *testing.T) {
	handler := NewSearchHandler(&stubRunSearch{}, &stubDiscoverPages{})

	for _, target := range []string{"/api/v1/search", "/api/v1/search?q=", "/api/v1/search?q=%20%20"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		handler.RunSearch(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "target: %s", target)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
	}
}

func TestRunSearchHandlerUpstreamFailure(t *testing.T) {
	upstreamErr := fmt.Errorf("use case: error discovering pages for query 'cuffie': %w",
		&domain.TransientFetchError{URL: "https://www.amazon.it/s?k=cuffie", Attempts: 3, Cause: errors.New("status 503")})

	handler := NewSearchHandler(&stubRunSearch{err: upstreamErr}, &stubDiscoverPages{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=cuffie", nil)
	rec := httptest.NewRecorder()

	handler.RunSearch(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// Клиент видит человекочитаемую причину, без следов разметки
	assert.NotContains(t, body["error"], "<")
	assert.NotEmpty(t, body["error"])
}

func TestRunSearchHandlerInternalError(t *testing.T) {
	handler := NewSearchHandler(&stubRunSearch{err: errors.New("boom")}, &stubDiscoverPages{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=cuffie", nil)
	rec := httptest.NewRecorder()

	handler.RunSearch(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDiscoverPagesHandlerOK(t *testing.T) {
	handler := NewSearchHandler(&stubRunSearch{}, &stubDiscoverPages{pages: 7})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/pages?q=cuffie", nil)
	rec := httptest.NewRecorder()

	handler.DiscoverPages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response PagesResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "cuffie", response.Query)
	assert.Equal(t, 7, response.Pages)
}

func TestDiscoverPagesHandlerRequiresQuery(t *testing.T) {
	handler := NewSearchHandler(&stubRunSearch{}, &stubDiscoverPages{pages: 7})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/pages", nil)
	rec := httptest.NewRecorder()

	handler.DiscoverPages(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	handler := NewSearchHandler(&stubRunSearch{}, &stubDiscoverPages{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServerRoutesThroughMiddleware(t *testing.T) {
	baseLogger := contextkeys.LoggerFromContext(context.Background())
	handler := NewSearchHandler(&stubRunSearch{result: sampleResult()}, &stubDiscoverPages{pages: 3})
	server := NewServer("0", "*", handler, baseLogger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=cuffie", nil)
	req.Header.Set("X-Trace-ID", "not-a-uuid")
	rec := httptest.NewRecorder()

	server.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
