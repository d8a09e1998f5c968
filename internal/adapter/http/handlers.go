package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-sales-pipeline/internal/dashboard"
	"github.com/couchcryptid/weather-sales-pipeline/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// weatherSalesParams are the raw query parameters of a Weather-Sales request.
type weatherSalesParams struct {
	City    string `validate:"required,max=100"`
	Country string `validate:"omitempty,max=100"`
	Start   string `validate:"required,datetime=2006-01-02"`
	End     string `validate:"required,datetime=2006-01-02"`
}

type ordersParams struct {
	Limit int `validate:"gte=0,lte=100000"`
}

type weatherSalesResponse struct {
	Query domain.WeatherSalesQuery `json:"query"`
	Rows  []domain.WeatherSalesRow `json:"rows"`
}

type ordersResponse struct {
	Total  int                      `json:"total"`
	Orders []domain.HarmonizedOrder `json:"orders"`
}

type customerLoyaltyResponse struct {
	Customers []domain.CustomerMetrics `json:"customers"`
}

type correlationResponse struct {
	Query         domain.WeatherSalesQuery `json:"query"`
	Correlations  []dashboard.Correlation  `json:"correlations"`
	ZeroSalesDays []domain.Date            `json:"zero_sales_days"`
	PeakWind      *dashboard.WindExtreme   `json:"peak_wind,omitempty"`
}

// handlerFunc is an HTTP handler whose failure is mapped to a status code in
// one place.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// responseTracker notes whether a handler has started its response.
type responseTracker struct {
	http.ResponseWriter
	started bool
}

func (t *responseTracker) WriteHeader(status int) {
	t.started = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *responseTracker) Write(b []byte) (int, error) {
	t.started = true
	return t.ResponseWriter.Write(b)
}

func (t *responseTracker) Unwrap() http.ResponseWriter { return t.ResponseWriter }

// instrument records query metrics for route and writes the error response
// when h fails before it has started its own response.
func (s *Server) instrument(route string, h handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		tw := &responseTracker{ResponseWriter: w}
		err := h(tw, r)
		s.metrics.QueryDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		outcome := "success"
		if err != nil {
			var status int
			var code string
			outcome, status, code = classify(err)
			logger := requestLogger(r, s.logger)
			switch {
			case tw.started:
				logger.Warn("response failed after headers were sent", "route", route, "error", err)
			case status >= http.StatusInternalServerError:
				logger.Error("query failed", "route", route, "error", err)
				writeError(w, r, status, code, err.Error())
			default:
				logger.Debug("query rejected", "route", route, "error", err)
				writeError(w, r, status, code, err.Error())
			}
		}
		s.metrics.QueriesTotal.WithLabelValues(route, outcome).Inc()
	})
}

func classify(err error) (outcome string, status int, code string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return "invalid", http.StatusBadRequest, "INVALID_QUERY"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", http.StatusGatewayTimeout, "QUERY_TIMEOUT"
	default:
		return "error", http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (s *Server) handleWeatherSales(w http.ResponseWriter, r *http.Request) error {
	q, err := weatherSalesQuery(r, domain.WeatherSalesQuery{})
	if err != nil {
		return err
	}
	rows, err := s.queries.WeatherSales(r.Context(), q)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []domain.WeatherSalesRow{}
	}
	return s.formatter.write(w, r, http.StatusOK, weatherSalesResponse{Query: q, Rows: rows})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) error {
	var p ordersParams
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidQuery)
		}
		p.Limit = n
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidQuery, describe(err))
	}

	orders, err := s.queries.Orders(r.Context())
	if err != nil {
		return err
	}
	resp := ordersResponse{Total: len(orders), Orders: orders}
	if p.Limit > 0 && p.Limit < len(orders) {
		resp.Orders = orders[:p.Limit]
	}
	if resp.Orders == nil {
		resp.Orders = []domain.HarmonizedOrder{}
	}
	return s.formatter.write(w, r, http.StatusOK, resp)
}

func (s *Server) handleCustomerLoyalty(w http.ResponseWriter, r *http.Request) error {
	customers, err := s.queries.CustomerLoyalty(r.Context())
	if err != nil {
		return err
	}
	if customers == nil {
		customers = []domain.CustomerMetrics{}
	}
	return s.formatter.write(w, r, http.StatusOK, customerLoyaltyResponse{Customers: customers})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) error {
	audit, err := s.queries.Audit(r.Context())
	if err != nil {
		return err
	}
	return s.formatter.write(w, r, http.StatusOK, audit)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) error {
	q, err := weatherSalesQuery(r, s.settings.Dashboard)
	if err != nil {
		return err
	}
	d, err := s.reader.Load(r.Context(), q)
	if err != nil {
		return err
	}
	return s.formatter.write(w, r, http.StatusOK, correlationResponse{
		Query:         d.Query,
		Correlations:  d.Correlations,
		ZeroSalesDays: d.ZeroSalesDays,
		PeakWind:      d.PeakWind,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) error {
	q, err := weatherSalesQuery(r, s.settings.Dashboard)
	if err != nil {
		return err
	}
	d, err := s.reader.Load(r.Context(), q)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := dashboard.Render(&buf, d); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}

// weatherSalesQuery reads city, country, start and end from the request,
// taking absent parameters from defaults. Every failure wraps
// domain.ErrInvalidQuery.
func weatherSalesQuery(r *http.Request, defaults domain.WeatherSalesQuery) (domain.WeatherSalesQuery, error) {
	v := r.URL.Query()
	p := weatherSalesParams{
		City:    strings.TrimSpace(v.Get("city")),
		Country: strings.TrimSpace(v.Get("country")),
		Start:   strings.TrimSpace(v.Get("start")),
		End:     strings.TrimSpace(v.Get("end")),
	}
	if p.City == "" {
		p.City = defaults.City
		if p.Country == "" {
			p.Country = defaults.Country
		}
	}
	if p.Start == "" && !defaults.Start.IsZero() {
		p.Start = defaults.Start.String()
	}
	if p.End == "" && !defaults.End.IsZero() {
		p.End = defaults.End.String()
	}

	if err := validate.Struct(p); err != nil {
		return domain.WeatherSalesQuery{}, fmt.Errorf("%w: %s", domain.ErrInvalidQuery, describe(err))
	}

	// Layouts were checked by the validator above.
	start, _ := domain.ParseDate(p.Start)
	end, _ := domain.ParseDate(p.End)
	q := domain.WeatherSalesQuery{City: p.City, Country: p.Country, Start: start, End: end}
	if err := q.Validate(); err != nil {
		return domain.WeatherSalesQuery{}, err
	}
	return q, nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "datetime":
			parts = append(parts, field+" must be YYYY-MM-DD")
		default:
			parts = append(parts, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(parts, "; ")
}
