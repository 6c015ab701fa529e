package api

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/moat/backend/internal/api/handlers"
	"github.com/wonny/moat/backend/internal/contracts"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/metrics"
	"github.com/wonny/moat/backend/pkg/redis"
)

// RouterDeps holds everything the router wires
type RouterDeps struct {
	Valuation   *handlers.ValuationHandler
	Overrides   *handlers.OverridesHandler
	Hub         *Hub
	Metrics     *metrics.Metrics // nil → no /metrics
	RateLimiter *redis.RateLimiter
	Logger      *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	// WebSocket
	if deps.Hub != nil {
		r.HandleFunc("/ws/overrides", deps.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(rateLimitMiddleware(deps.RateLimiter, log))

	// Valuation endpoints
	api.HandleFunc("/sectors", deps.Valuation.GetSectors).Methods("GET")
	api.HandleFunc("/sectors/{name}", deps.Valuation.GetSector).Methods("GET")
	api.HandleFunc("/valuation", deps.Valuation.PostValuation).Methods("POST")
	api.HandleFunc("/tickers/{ticker}/valuation", deps.Valuation.GetTickerValuation).Methods("GET")
	api.HandleFunc("/tickers/{ticker}/history", deps.Valuation.GetTickerHistory).Methods("GET")

	// Override endpoints
	api.HandleFunc("/overrides", deps.Overrides.Get).Methods("GET")
	api.HandleFunc("/overrides", deps.Overrides.Replace).Methods("PUT")
	api.HandleFunc("/overrides", deps.Overrides.Reset).Methods("DELETE")
	api.HandleFunc("/overrides/sectors/{name}", deps.Overrides.SetSector).Methods("PUT")
	api.HandleFunc("/overrides/sectors/{name}", deps.Overrides.ClearSector).Methods("DELETE")
	api.HandleFunc("/overrides/tickers/{ticker}", deps.Overrides.SetTicker).Methods("PUT")
	api.HandleFunc("/overrides/tickers/{ticker}", deps.Overrides.ClearTicker).Methods("DELETE")

	// Apply middleware
	r.Use(loggingMiddleware(log, deps.Metrics))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": logger.ServiceName + "-api",
	})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrader take over the connection
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// loggingMiddleware logs HTTP requests and records their duration
func loggingMiddleware(log *logger.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.ObserveHTTP(r.Method, route, rec.status, time.Since(start))

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware limits API requests per client IP (Redis sliding window).
// Limiter errors let the request through.
func rateLimitMiddleware(limiter *redis.RateLimiter, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg := redis.APIRateLimit.WithKey(clientIP(r))

			allowed, remaining, err := limiter.Allow(r.Context(), cfg)
			if err != nil {
				log.WithError(err).Warn("Rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// OverridesMessage builds the WebSocket message for an override set
func OverridesMessage(set contracts.OverrideSet, composites *contracts.CompositeSet) Message {
	return Message{
		Type:      MessageTypeOverrides,
		Overrides: set,
		Sectors:   composites.Ordered(),
	}
}
