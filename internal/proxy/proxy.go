// Package proxy serves the YouTube search and trending endpoints over HTTP so
// clients never hold the Data API key.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/structures"
)

// Catalog is the upstream the proxy forwards to. *api.Client implements it.
type Catalog interface {
	EdgeSearch(ctx context.Context, query string, limit int) ([]structures.Track, error)
	EdgeTrending(ctx context.Context, limit int) ([]structures.Track, error)
}

// StatusFunc reports upstream connectivity for the /status route
type StatusFunc func(ctx context.Context) api.ConnectionStatus

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
}

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type handler struct {
	catalog Catalog
	status  StatusFunc
	token   string
}

// NewHandler builds the proxy router. When token is non-empty, GET requests
// must carry "Authorization: Bearer <token>". status may be nil.
func NewHandler(catalog Catalog, status StatusFunc, token string) http.Handler {
	h := &handler{catalog: catalog, status: status, token: token}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Options("/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authorize)
		r.Get("/", h.serveCatalog)
		r.Get("/status", h.serveStatus)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range corsHeaders {
			w.Header().Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Info("%s %s %d %s [%s]", r.Method, r.URL.RequestURI(), ww.Status(),
			time.Since(start).Round(time.Millisecond), middleware.GetReqID(r.Context()))
	})
}

func (h *handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || got != h.token {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) serveCatalog(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	action := params.Get("action")
	if action == "" {
		action = "trending"
	}
	query := params.Get("q")
	limit, err := strconv.Atoi(params.Get("limit"))
	if err != nil || limit <= 0 {
		limit = constants.DefaultProxyLimit
	}
	if limit > 50 {
		limit = 50
	}

	var tracks []structures.Track
	if action == "search" && strings.TrimSpace(query) != "" {
		tracks, err = h.catalog.EdgeSearch(r.Context(), query, limit)
	} else {
		tracks, err = h.catalog.EdgeTrending(r.Context(), limit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if tracks == nil {
		tracks = []structures.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Status check not available"})
		return
	}
	st := h.status(r.Context())
	code := http.StatusOK
	if !st.Success {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, st)
}

func writeError(w http.ResponseWriter, err error) {
	var re *api.RequestError
	if errors.As(err, &re) && re.Status > 0 {
		logger.Warn("Upstream error %d: %s", re.Status, re.Message)
		var details any = re.Details
		if len(re.Details) == 0 {
			details = re.Message
		}
		writeJSON(w, re.Status, errorBody{Error: "YouTube API error", Details: details})
		return
	}

	logger.Error("Proxy request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error", Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}
