package rest

import (
	"context"
	"net/http"
	"strings"

	core_port "amazon-search-service/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	httpServer *http.Server
	logger     core_port.LoggerPort
}

func NewServer(port string, allowedOrigins string,
	search_handlers *SearchHandler,
	baseLogger core_port.LoggerPort) *Server {

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(baseLogger), middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		// AllowedOrigins - список доменов, с которых разрешены запросы
		AllowedOrigins: strings.Split(allowedOrigins, ","),

		// Сервис читающий: только GET и preflight
		AllowedMethods: []string{"GET", "OPTIONS"},

		AllowedHeaders: []string{"Accept", "Content-Type", "X-Trace-ID"},

		MaxAge: 300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", search_handlers.RunSearch)
		r.Get("/search/pages", search_handlers.DiscoverPages)
		r.Get("/health", search_handlers.Health)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + port,
			Handler: r,
		},
		logger: baseLogger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST server", core_port.Fields{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST server...", nil)
	return s.httpServer.Shutdown(ctx)
}
