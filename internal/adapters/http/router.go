// Package httpadapter exposes the session search pipeline over HTTP.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/ports"
	"github.com/adb1146/itc-conference-app-sub001/internal/observability/metrics"
)

type Router struct {
	search  ports.SessionSearchService
	metrics *metrics.SearchMetrics
}

func NewRouter(search ports.SessionSearchService, m *metrics.SearchMetrics) *Router {
	return &Router{search: search, metrics: m}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/search", rt.searchSessions)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query                string              `json:"query"`
	Limit                int                 `json:"limit"`
	UserID               string              `json:"user_id"`
	UserContext          *domain.UserContext `json:"user_context"`
	IncludeEnrichments   *bool               `json:"include_enrichments"`
	IncludeFormatting    *bool               `json:"include_formatting"`
	ApplyPersonalization *bool               `json:"apply_personalization"`
	DebugScores          bool                `json:"debug_scores"`
}

func (rt *Router) searchSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	// A blank query is a valid search that simply matches little or
	// nothing; the pipeline handles it without a guard here.

	opts := ports.SearchOptions{
		UserID:               req.UserID,
		UserContext:          req.UserContext,
		IncludeEnrichments:   boolOrDefault(req.IncludeEnrichments, true),
		IncludeFormatting:    boolOrDefault(req.IncludeFormatting, true),
		ApplyPersonalization: boolOrDefault(req.ApplyPersonalization, req.UserContext != nil),
		DebugScores:          req.DebugScores,
	}

	result, err := rt.search.Search(r.Context(), req.Query, req.Limit, opts)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.recordSearchMetrics(result)
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) recordSearchMetrics(result *domain.SearchResult) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordSearch("api",
		string(result.SearchMethod),
		string(result.QueryType),
		result.TotalFound,
		time.Duration(result.Timings["total"])*time.Millisecond,
	)
	switch result.SearchMethod {
	case domain.MethodKeyword, domain.MethodDatabase:
		rt.metrics.RecordFallback("api", string(result.SearchMethod))
	}
	for stage, ms := range result.Timings {
		if stage == "total" {
			continue
		}
		rt.metrics.RecordStage("api", stage, time.Duration(ms)*time.Millisecond)
	}
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSessionNotFound), domain.IsKind(err, domain.ErrSpeakerNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
