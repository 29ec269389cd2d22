package rest

import (
	"errors"
	"net/http"
	"strings"

	"amazon-search-service/internal/contextkeys"
	"amazon-search-service/internal/core/domain"
	"amazon-search-service/internal/core/port"
	usecases_port "amazon-search-service/internal/core/port/usecases"
)

// SearchHandler обслуживает поисковые маршруты REST API
type SearchHandler struct {
	runSearchUC     usecases_port.RunSearchPort
	discoverPagesUC usecases_port.DiscoverPagesPort
}

// NewSearchHandler создает новый экземпляр SearchHandler
func NewSearchHandler(runSearchUC usecases_port.RunSearchPort, discoverPagesUC usecases_port.DiscoverPagesPort) *SearchHandler {
	return &SearchHandler{
		runSearchUC:     runSearchUC,
		discoverPagesUC: discoverPagesUC,
	}
}

// RunSearch обрабатывает GET /api/v1/search?q=<запрос>
func (h *SearchHandler) RunSearch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteJSONError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"handler": "RunSearch", "query": query})
	handlerLogger.Debug("Processing search request", nil)

	result, err := h.runSearchUC.Execute(r.Context(), query)
	if err != nil {
		// Исчерпанный бюджет повторов транспорта - проблема апстрима,
		// а не наша: клиенту отдаем 502 с человекочитаемой причиной
		var fetchErr *domain.TransientFetchError
		if errors.As(err, &fetchErr) {
			handlerLogger.Error("Upstream fetch failed", err, nil)
			WriteJSONError(w, http.StatusBadGateway, "upstream site is unavailable, try again later")
			return
		}

		handlerLogger.Error("Search failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	RespondWithJSON(w, http.StatusOK, toSearchResponseDTO(result))
}

// DiscoverPages обрабатывает GET /api/v1/search/pages?q=<запрос>
func (h *SearchHandler) DiscoverPages(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context())

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteJSONError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"handler": "DiscoverPages", "query": query})
	handlerLogger.Debug("Processing page discovery request", nil)

	pages, err := h.discoverPagesUC.Execute(r.Context(), query)
	if err != nil {
		var fetchErr *domain.TransientFetchError
		if errors.As(err, &fetchErr) {
			handlerLogger.Error("Upstream fetch failed", err, nil)
			WriteJSONError(w, http.StatusBadGateway, "upstream site is unavailable, try again later")
			return
		}

		handlerLogger.Error("Page discovery failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	RespondWithJSON(w, http.StatusOK, &PagesResponseDTO{Query: query, Pages: pages})
}

// Health обрабатывает GET /api/v1/health
func (h *SearchHandler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
