package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/optionlab/pricer/internal/auth"
	"github.com/optionlab/pricer/internal/database"
	"github.com/optionlab/pricer/internal/metrics"
	"github.com/optionlab/pricer/internal/models"
	"github.com/optionlab/pricer/internal/pricing"
)

var errStoreDisabled = errors.New("quote store is not configured")

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// QuoteStore persists priced quotes.
type QuoteStore interface {
	Store(ctx context.Context, q *models.Quote) error
	Get(ctx context.Context, id string) (*models.Quote, error)
	List(ctx context.Context, filter database.QuoteFilter) ([]*models.Quote, error)
}

// Handler serves the pricing API.
type Handler struct {
	defaults  pricing.EngineDefaults
	quotes    QuoteStore
	collector *metrics.Collector
	health    func(context.Context) error
	poolStats func() map[string]any
	logger    *slog.Logger
	startTime time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithQuoteStore enables quote persistence and the quote endpoints.
func WithQuoteStore(s QuoteStore) Option {
	return func(h *Handler) { h.quotes = s }
}

// WithCollector records engine evaluations on c.
func WithCollector(c *metrics.Collector) Option {
	return func(h *Handler) { h.collector = c }
}

// WithHealthCheck adds a dependency probe to /healthz.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(h *Handler) { h.health = check }
}

// WithPoolStats reports connection pool statistics on /healthz.
func WithPoolStats(stats func() map[string]any) Option {
	return func(h *Handler) { h.poolStats = stats }
}

// NewHandler creates a handler building engines from defaults.
func NewHandler(defaults pricing.EngineDefaults, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		defaults:  defaults,
		logger:    logger,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// PriceRequest is the body of POST /api/v1/price.
type PriceRequest struct {
	Option   pricing.OptionSpec `json:"option"`
	Engine   pricing.EngineSpec `json:"engine"`
	Greeks   bool               `json:"greeks"`
	Boundary bool               `json:"exercise_boundary"`
	Store    bool               `json:"store"`
}

// PriceResponse is a quote plus fields that are never persisted.
type PriceResponse struct {
	*models.Quote
	Stored           bool                    `json:"stored"`
	ExerciseBoundary []pricing.BoundaryPoint `json:"exercise_boundary,omitempty"`
}

// ImpliedVolatilityRequest is the body of POST /api/v1/implied-volatility.
type ImpliedVolatilityRequest struct {
	Option      pricing.OptionSpec `json:"option"`
	Engine      pricing.EngineSpec `json:"engine"`
	MarketPrice float64            `json:"market_price"`
}

// ImpliedVolatilityResponse reports the solved volatility.
type ImpliedVolatilityResponse struct {
	Engine            pricing.EngineKind `json:"engine"`
	MarketPrice       float64            `json:"market_price"`
	ImpliedVolatility float64            `json:"implied_volatility"`
}

// QuotesResponse lists stored quotes.
type QuotesResponse struct {
	Quotes []*models.Quote `json:"quotes"`
	Count  int             `json:"count"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	QuoteStore    string         `json:"quote_store"`
	Pool          map[string]any `json:"pool,omitempty"`
}

// Price handles POST /api/v1/price
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Store && h.quotes == nil {
		writeError(w, h.logger, errStoreDisabled)
		return
	}

	p, engine, err := h.prepare(req.Option, req.Engine)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	val, err := pricing.Value(engine, p, pricing.ValueOptions{Greeks: req.Greeks, Boundary: req.Boundary})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	quote, err := models.NewQuote(pricing.SpecOf(engine), val.Engine, p, val.Price, val.Greeks, val.Estimate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if clientID, ok := auth.ClientIDFromContext(r.Context()); ok {
		quote.ClientID = clientID
	}

	resp := PriceResponse{Quote: quote, ExerciseBoundary: val.ExerciseBoundary}
	status := http.StatusOK
	if req.Store {
		if err := h.quotes.Store(r.Context(), quote); err != nil {
			writeError(w, h.logger, err)
			return
		}
		resp.Stored = true
		status = http.StatusCreated
	}

	h.logger.Debug("priced option",
		"engine", val.Engine,
		"type", p.Type,
		"style", p.Style,
		"price", val.Price,
		"stored", resp.Stored,
	)
	writeJSON(w, status, resp, h.logger)
}

// ImpliedVolatility handles POST /api/v1/implied-volatility
func (h *Handler) ImpliedVolatility(w http.ResponseWriter, r *http.Request) {
	var req ImpliedVolatilityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := ValidateMarketPrice(req.MarketPrice); err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Volatility is solved for; any positive placeholder passes validation.
	if req.Option.Volatility == 0 {
		req.Option.Volatility = pricing.MinImpliedVolatility
	}
	p, engine, err := h.prepare(req.Option, req.Engine)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	vol, err := pricing.ImpliedVolatility(engine, p, req.MarketPrice)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ImpliedVolatilityResponse{
		Engine:            engine.Kind(),
		MarketPrice:       req.MarketPrice,
		ImpliedVolatility: vol,
	}, h.logger)
}

// ListQuotes handles GET /api/v1/quotes
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		writeError(w, h.logger, errStoreDisabled)
		return
	}

	filter := database.QuoteFilter{Engine: r.URL.Query().Get("engine")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, h.logger, ValidationError{Field: "limit", Message: "must be an integer"})
			return
		}
		if err := ValidateLimit(limit); err != nil {
			writeError(w, h.logger, err)
			return
		}
		filter.Limit = limit
	}
	if clientID, ok := auth.ClientIDFromContext(r.Context()); ok {
		filter.ClientID = clientID
	}

	quotes, err := h.quotes.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, QuotesResponse{Quotes: quotes, Count: len(quotes)}, h.logger)
}

// GetQuote handles GET /api/v1/quotes/{id}
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		writeError(w, h.logger, errStoreDisabled)
		return
	}

	quote, err := h.quotes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	// Quotes are private to the client that stored them.
	if clientID, ok := auth.ClientIDFromContext(r.Context()); ok && quote.ClientID != clientID {
		writeError(w, h.logger, database.ErrQuoteNotFound)
		return
	}
	writeJSON(w, http.StatusOK, quote, h.logger)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		QuoteStore:    "disabled",
	}
	status := http.StatusOK

	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			resp.Status = "degraded"
			resp.QuoteStore = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.QuoteStore = "ok"
		}
	}
	if h.poolStats != nil {
		resp.Pool = h.poolStats()
	}
	writeJSON(w, status, resp, h.logger)
}

func (h *Handler) prepare(o pricing.OptionSpec, s pricing.EngineSpec) (pricing.Params, pricing.Engine, error) {
	p, err := o.Params()
	if err != nil {
		return pricing.Params{}, nil, err
	}
	engine, err := s.BuildWith(h.defaults, h.logger)
	if err != nil {
		return pricing.Params{}, nil, err
	}
	if err := ValidateEngine(pricing.SpecOf(engine), p.Style); err != nil {
		return pricing.Params{}, nil, err
	}
	if h.collector != nil {
		engine = h.collector.InstrumentEngine(engine)
	}
	return p, engine, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
