package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-sales-pipeline/internal/dashboard"
	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/couchcryptid/weather-sales-pipeline/internal/observability"
	"github.com/couchcryptid/weather-sales-pipeline/internal/pipeline"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Queries is the read side the API serves. *pipeline.Pipeline implements it.
type Queries interface {
	sharedobs.ReadinessChecker
	WeatherSales(ctx context.Context, q domain.WeatherSalesQuery) ([]domain.WeatherSalesRow, error)
	Orders(ctx context.Context) ([]domain.HarmonizedOrder, error)
	CustomerLoyalty(ctx context.Context) ([]domain.CustomerMetrics, error)
	Audit(ctx context.Context) (pipeline.Audit, error)
}

// Settings tunes request handling.
type Settings struct {
	// QueryTimeout bounds every API and dashboard request.
	QueryTimeout time.Duration
	// Dashboard fills query parameters a request leaves out.
	Dashboard domain.WeatherSalesQuery
}

// Server exposes the query API, the dashboard, and health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	queries    Queries
	reader     *dashboard.Reader
	settings   Settings
	formatter  *formatter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with every route registered.
func NewServer(addr string, queries Queries, settings Settings, logger *slog.Logger, metrics *observability.Metrics) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: settings.QueryTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		queries:   queries,
		reader:    dashboard.NewReader(queries),
		settings:  settings,
		formatter: newFormatter(),
		logger:    logger,
		metrics:   metrics,
	}

	router.Use(correlationIDMiddleware(logger))

	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(queries)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(timeoutMiddleware(settings.QueryTimeout))
	api.Handle("/weather-sales", s.instrument("weather_sales", s.handleWeatherSales)).Methods(http.MethodGet)
	api.Handle("/orders", s.instrument("orders", s.handleOrders)).Methods(http.MethodGet)
	api.Handle("/customer-loyalty", s.instrument("customer_loyalty", s.handleCustomerLoyalty)).Methods(http.MethodGet)
	api.Handle("/audit", s.instrument("audit", s.handleAudit)).Methods(http.MethodGet)
	api.Handle("/correlation", s.instrument("correlation", s.handleCorrelation)).Methods(http.MethodGet)

	withTimeout := timeoutMiddleware(settings.QueryTimeout)
	router.Handle("/dashboard", withTimeout(s.instrument("dashboard", s.handleDashboard))).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
