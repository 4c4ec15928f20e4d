package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T, allowAnonymous bool) *Server {
	t.Helper()
	store, err := storage.NewRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(log.DefaultConfig())
	summaryCache := cache.NewLRU[analytics.Summary](16, time.Minute)
	svc := services.NewRecordService(store, nil, summaryCache, logger)

	s := NewServer(Config{Addr: ":0", RequestsPerMinute: 1000}, svc, &auth.Resolver{AllowAnonymous: allowAnonymous}, logger)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func doRequest(s *Server, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(auth.SubjectHeader, user)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestCORSHeadersOnEveryResponse(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodGet, "/expenses", "user-a", "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type,Authorization" {
		t.Errorf("Allow-Headers = %q, want Content-Type,Authorization", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "DELETE") {
		t.Errorf("Allow-Methods = %q, missing DELETE", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestOptionsPreflightShortCircuits(t *testing.T) {
	s := newTestServer(t, false)

	// No identity on purpose: preflights never carry credentials.
	rec := doRequest(s, http.MethodOptions, "/expenses", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if m := decodeMap(t, rec); m["message"] != "CORS preflight successful" {
		t.Errorf("body = %v", m)
	}
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodGet, "/expenses", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if m := decodeMap(t, rec); m["error"] != "Unauthorized" {
		t.Errorf("body = %v", m)
	}
}

func TestAnonymousFallbackInDevMode(t *testing.T) {
	s := newTestServer(t, true)

	rec := doRequest(s, http.MethodGet, "/expenses", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with anonymous fallback", rec.Code)
	}
}

func TestExpenseCRUDFlow(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodPost, "/expenses", "user-a",
		`{"amount": "42.50", "category": "Food", "description": "groceries", "date": "2024-06-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeMap(t, rec)
	id, _ := created["expenseId"].(string)
	if !strings.HasPrefix(id, "expense-") {
		t.Fatalf("expenseId = %q", id)
	}
	if created["userId"] != "user-a" {
		t.Errorf("userId = %v", created["userId"])
	}
	if created["amount"] != 42.5 {
		t.Errorf("amount = %v, want 42.5 (string coerced)", created["amount"])
	}

	rec = doRequest(s, http.MethodGet, "/expenses", "user-a", "")
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %s (err %v)", rec.Body.String(), err)
	}

	rec = doRequest(s, http.MethodGet, "/expenses/"+id, "user-a", "")
	if got := decodeMap(t, rec); got["expenseId"] != id {
		t.Errorf("get by id = %v", got)
	}

	rec = doRequest(s, http.MethodPut, "/expenses/"+id, "user-a",
		`{"amount": 99.9, "category": "Food", "description": "restaurant", "date": "2024-06-02"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if m := decodeMap(t, rec); m["message"] != "Expense updated successfully" {
		t.Errorf("update body = %v", m)
	}

	rec = doRequest(s, http.MethodDelete, "/expenses/"+id, "user-a", "")
	if m := decodeMap(t, rec); m["message"] != "Expense deleted successfully" {
		t.Errorf("delete body = %v", m)
	}

	rec = doRequest(s, http.MethodGet, "/expenses/"+id, "user-a", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "{}\n" {
		t.Errorf("get after delete = %d %q, want 200 {}", rec.Code, rec.Body.String())
	}
}

func TestListEmptyIsArray(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodGet, "/expenses", "user-a", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list body = %q, want []", rec.Body.String())
	}
}

func TestTenantIsolation(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodPost, "/expenses", "user-a",
		`{"amount": 10, "category": "Food", "date": "2024-06-01"}`)
	id := decodeMap(t, rec)["expenseId"].(string)

	// Another user sees an empty object, not the record.
	rec = doRequest(s, http.MethodGet, "/expenses/"+id, "user-b", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Errorf("cross-user get = %d %q", rec.Code, rec.Body.String())
	}

	// A cross-user delete reports success without touching the record.
	doRequest(s, http.MethodDelete, "/expenses/"+id, "user-b", "")
	rec = doRequest(s, http.MethodGet, "/expenses/"+id, "user-a", "")
	if decodeMap(t, rec)["expenseId"] != id {
		t.Error("record deleted by foreign user")
	}
}

func TestRejectedInputUsesGenericErrorEnvelope(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"amount": -5, "category": "Food", "date": "2024-06-01"}`},
		{"bad date", `{"amount": 5, "category": "Food", "date": "June 1st"}`},
		{"missing category", `{"amount": 5, "date": "2024-06-01"}`},
		{"malformed json", `{"amount": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/expenses", "user-a", tt.body)
			// Rejected input is not distinguished from any other failure:
			// same status, same generic message, detail in "details".
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500 (body %s)", rec.Code, rec.Body.String())
			}
			m := decodeMap(t, rec)
			if m["error"] != "Internal server error" {
				t.Errorf("error = %v, want generic message", m["error"])
			}
			if details, _ := m["details"].(string); details == "" {
				t.Errorf("details missing from body %v", m)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodPatch, "/expenses", "user-a", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if m := decodeMap(t, rec); m["error"] != "Method not allowed" {
		t.Errorf("body = %v", m)
	}
}

func TestBudgetProgressEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodPost, "/budgets", "user-a",
		`{"category": "Food", "amount": 500, "alertThreshold": 80, "period": "monthly"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget = %d, body %s", rec.Code, rec.Body.String())
	}
	budgetID := decodeMap(t, rec)["budgetId"].(string)

	today := time.Now().UTC().Format("2006-01-02")
	doRequest(s, http.MethodPost, "/expenses", "user-a",
		`{"amount": 420, "category": "Food", "date": "`+today+`"}`)

	rec = doRequest(s, http.MethodGet, "/budgets/"+budgetID+"/progress", "user-a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("progress status = %d", rec.Code)
	}
	p := decodeMap(t, rec)
	if p["spent"] != 420.0 || p["percent"] != 84.0 || p["alert"] != true {
		t.Errorf("progress = %v", p)
	}

	// Unknown budget behaves like a missing single-record GET.
	rec = doRequest(s, http.MethodGet, "/budgets/budget-missing/progress", "user-a", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "{}" {
		t.Errorf("missing progress = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCategoryDefaultsApplied(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodPost, "/categories", "user-a", `{"name": "Transport"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	c := decodeMap(t, rec)
	if c["color"] != "#3B82F6" || c["icon"] != "tag" {
		t.Errorf("defaults = color %v icon %v", c["color"], c["icon"])
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	today := time.Now().UTC().Format("2006-01-02")
	doRequest(s, http.MethodPost, "/expenses", "user-a",
		`{"amount": 30, "category": "Food", "date": "`+today+`"}`)
	doRequest(s, http.MethodPost, "/expenses", "user-a",
		`{"amount": 70, "category": "Transport", "date": "`+today+`"}`)

	rec := doRequest(s, http.MethodGet, "/analytics", "user-a", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	summary := decodeMap(t, rec)
	if summary["totalExpenses"] != 100.0 {
		t.Errorf("totalExpenses = %v, want 100", summary["totalExpenses"])
	}
	breakdown, ok := summary["categoryBreakdown"].([]any)
	if !ok || len(breakdown) != 2 {
		t.Fatalf("categoryBreakdown = %v", summary["categoryBreakdown"])
	}
	first := breakdown[0].(map[string]any)
	if first["name"] != "Food" {
		t.Errorf("first category = %v, want Food (insertion order)", first["name"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)

	rec := doRequest(s, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ready" {
		t.Errorf("readyz = %d %q", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	m := decodeMap(t, rec)
	if _, ok := m["total_requests"]; !ok {
		t.Errorf("metrics body = %v", m)
	}
}
