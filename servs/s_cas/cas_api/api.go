// servs/s_cas/cas_api/api.go

// Package cas_api serves a Store over HTTP and websocket.
package cas_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"
	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/servs/s_cas/cas_serv"
)

// Server is the HTTP surface of a store.
type Server struct {
	store   cas_serv.Store
	cfg     config.APISettings
	delim   rune
	cache   *ristretto.Cache[string, cas_serv.QueryResult]
	metrics *metrics
	log     zerolog.Logger
	router  chi.Router
}

// New wires the routes. A zero cache size disables result caching.
func New(store cas_serv.Store, cfg config.APISettings, delim rune, log zerolog.Logger) (*Server, error) {
	s := &Server{store: store, cfg: cfg, delim: delim, log: log}
	if cfg.CacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, cas_serv.QueryResult]{
			NumCounters:        cfg.CacheSize * 10,
			MaxCost:            cfg.CacheSize, // in matches
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("query cache: %w", err)
		}
		s.cache = cache
	}
	if cfg.Metrics {
		s.metrics = newMetrics(store)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	if s.metrics != nil {
		r.Use(s.metrics.middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/info", s.handleInfo)
		r.Get("/stats", s.handleStats)
		r.Get("/query", s.handleQuery)
		r.Post("/query", s.handleQuery)
		r.Get("/export", s.handleExport)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(JWTMiddleware(s.cfg.JWTSecret))
			r.Post("/keys", s.handleInsert)
			r.Delete("/keys", s.handleDelete)
			r.Post("/import", s.handleImport)
			r.Post("/merge", s.handleMerge)
		})
	})

	r.With(JWTMiddleware(s.cfg.JWTSecret)).Get("/ws/query", s.handleWS)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("REST API listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if s.cache != nil {
		s.cache.Close()
	}
	return err
}

// requestLog tags every request with an id and logs its outcome.
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := s.log.With().Str("req_id", nuid.Next()).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))
		l.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

//---------------------
// Cache
//---------------------

// cacheKey files a result under the store generation read before the
// query ran.
func cacheKey(gen uint64, req cas_serv.QueryRequest) string {
	b, _ := json.Marshal(req)
	return strconv.FormatUint(gen, 10) + "|" + string(b)
}

func (s *Server) query(req cas_serv.QueryRequest) (cas_serv.QueryResult, bool, error) {
	key := cacheKey(s.store.Generation(), req)
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			return res, true, nil
		}
	}
	res, err := s.store.Query(req)
	if err != nil {
		return res, false, err
	}
	if s.cache != nil {
		s.cache.Set(key, res, int64(len(res.Matches))+1)
		s.cache.Wait()
	}
	return res, false, nil
}

//---------------------
// Responses
//---------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("bad request: %w", err)
	}
	return nil
}

// statusOf maps store errors to HTTP codes.
func statusOf(err error) int {
	if errors.Is(err, cas_serv.ErrBadValue) {
		return http.StatusBadRequest
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
