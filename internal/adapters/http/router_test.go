package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/ports"
)

type fakeSearchService struct {
	lastQuery string
	lastLimit int
	lastOpts  ports.SearchOptions
	result    *domain.SearchResult
	err       error
}

func (f *fakeSearchService) Search(_ context.Context, query string, limit int, opts ports.SearchOptions) (*domain.SearchResult, error) {
	f.lastQuery = query
	f.lastLimit = limit
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestSearchEndpointReturnsResult(t *testing.T) {
	svc := &fakeSearchService{
		result: &domain.SearchResult{
			Sessions:     []domain.Session{{ID: "s-1", Title: "Claims Automation"}},
			SearchMethod: domain.MethodVector,
			QueryType:    domain.QueryTypeTopic,
			TotalFound:   1,
		},
	}
	handler := NewRouter(svc, nil).Handler()

	body := strings.NewReader(`{"query":"claims automation","limit":5,"user_id":"u-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/search", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastQuery != "claims automation" || svc.lastLimit != 5 {
		t.Fatalf("query=%q limit=%d", svc.lastQuery, svc.lastLimit)
	}
	if !svc.lastOpts.IncludeEnrichments || !svc.lastOpts.IncludeFormatting {
		t.Fatalf("expected enrichments and formatting on by default, got %+v", svc.lastOpts)
	}
	if svc.lastOpts.ApplyPersonalization {
		t.Fatalf("personalization should default off without user context")
	}

	var result domain.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TotalFound != 1 || result.SearchMethod != domain.MethodVector {
		t.Fatalf("result = %+v", result)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestSearchEndpointDefaultsPersonalizationFromContext(t *testing.T) {
	svc := &fakeSearchService{result: &domain.SearchResult{}}
	handler := NewRouter(svc, nil).Handler()

	body := strings.NewReader(`{"query":"ai","user_context":{"interests":["AI"]}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/search", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !svc.lastOpts.ApplyPersonalization {
		t.Fatalf("expected personalization on when user context present")
	}
}

func TestSearchEndpointAcceptsEmptyQuery(t *testing.T) {
	svc := &fakeSearchService{result: &domain.SearchResult{
		SearchMethod: domain.MethodDatabase,
		QueryType:    domain.QueryTypeGeneral,
	}}
	handler := NewRouter(svc, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"  "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, blank queries are valid searches", rec.Code)
	}
	if svc.lastQuery != "  " {
		t.Fatalf("query = %q, want the raw query passed through", svc.lastQuery)
	}

	var result domain.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TotalFound != 0 {
		t.Fatalf("total found = %d, want 0", result.TotalFound)
	}
}

func TestSearchEndpointRejectsGet(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSearchEndpointMapsBackendErrors(t *testing.T) {
	svc := &fakeSearchService{err: domain.WrapError(domain.ErrTemporary, "search", context.DeadlineExceeded)}
	handler := NewRouter(svc, nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"ai"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := NewRouter(&fakeSearchService{}, nil).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
