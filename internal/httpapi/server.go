package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"backlab/internal/backtest"
	"backlab/internal/config"
	"backlab/internal/marketdata"
	"backlab/internal/store"
	"backlab/internal/strategy"
)

// Server serves the backlab HTTP API.
type Server struct {
	backtester *backtest.Backtester
	strategies store.StrategyStore
	provider   marketdata.Provider
	defaults   config.BacktestConfig
	log        *slog.Logger
}

// NewServer creates an API server over the given collaborators.
func NewServer(
	backtester *backtest.Backtester,
	strategies store.StrategyStore,
	provider marketdata.Provider,
	defaults config.BacktestConfig,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		backtester: backtester,
		strategies: strategies,
		provider:   provider,
		defaults:   defaults,
		log:        log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/strategies", s.handleListStrategies)
	mux.HandleFunc("GET /api/strategies/{name}", s.handleGetStrategy)
	mux.HandleFunc("PUT /api/strategies/{name}", s.handleSaveStrategy)
	mux.HandleFunc("DELETE /api/strategies/{name}", s.handleDeleteStrategy)
	mux.HandleFunc("GET /api/bars/{symbol}", s.handleGetBars)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Strategy == "" || req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "strategy and symbol are required")
		return
	}
	if req.Period == "" {
		req.Period = s.defaults.Period
	}
	if req.Interval == "" {
		req.Interval = s.defaults.Interval
	}

	res, err := s.backtester.Run(r.Context(), req.Strategy, req.Symbol, req.Period, req.Interval)
	if err != nil {
		var cfgErr *strategy.ConfigError
		switch {
		case errors.Is(err, store.ErrStrategyNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &cfgErr):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.log.Error("backtest failed", "strategy", req.Strategy, "symbol", req.Symbol, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, BacktestResponse{
		Strategy:    req.Strategy,
		Symbol:      req.Symbol,
		Trades:      res.Trades,
		EquityCurve: res.EquityCurve,
		Stats:       res.Stats,
	})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	names, err := s.strategies.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, map[string][]string{"strategies": names})
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cfg, err := s.strategies.Load(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrStrategyNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, cfg)
}

func (s *Server) handleSaveStrategy(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var cfg strategy.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid strategy document: "+err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.strategies.Save(r.Context(), name, cfg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("strategy saved", "name", name)
	writeJSON(w, map[string]string{"status": "saved", "name": name})
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.strategies.Delete(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrStrategyNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "name": name})
}

func (s *Server) handleGetBars(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	period := r.URL.Query().Get("period")
	interval := r.URL.Query().Get("interval")
	if period == "" {
		period = s.defaults.Period
	}
	if interval == "" {
		interval = s.defaults.Interval
	}

	bars, err := s.provider.Fetch(r.Context(), symbol, period, interval)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	out := make([]BarJSON, 0, len(bars))
	for i := range bars {
		out = append(out, barToJSON(&bars[i]))
	}
	writeJSON(w, map[string]any{"symbol": symbol, "bars": out})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
