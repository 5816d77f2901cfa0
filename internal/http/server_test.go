package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"kpidash/internal/config"
	"kpidash/internal/core"
	"kpidash/internal/data"
	"kpidash/internal/data/memory"
	applog "kpidash/internal/log"
	"kpidash/internal/page"
	"kpidash/internal/session"
)

type published struct{ sessionID, category string }

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishSelectionChanged(_ context.Context, sessionID, category string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{sessionID, category})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingStore struct{}

func (failingStore) CategoryTable(context.Context) ([]core.CategoryRecord, error) {
	return nil, errors.New("store down")
}
func (failingStore) TimeSeries(context.Context) ([]core.TimeSeriesRecord, error) {
	return nil, errors.New("store down")
}

// switchableStore serves the sample data until down is set.
type switchableStore struct {
	data.Store
	down atomic.Bool
}

func (s *switchableStore) CategoryTable(ctx context.Context) ([]core.CategoryRecord, error) {
	if s.down.Load() {
		return nil, errors.New("store down")
	}
	return s.Store.CategoryTable(ctx)
}

func newTestServer(t *testing.T, pub *recordingPublisher) *Server {
	t.Helper()
	composer := page.NewComposer(memory.NewSample(), page.DefaultContent(), nil)
	registry := session.NewRegistry(composer, session.DefaultConfig(), nil)
	opts := Options{
		Registry:           registry,
		Composer:           composer,
		Theme:              config.DefaultTheme(),
		RateLimitPerMinute: 60,
		Logger:             applog.Discard(),
	}
	if pub != nil {
		opts.Publisher = pub
	}
	srv, err := NewServer(":0", opts)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func selectionRequest(category string, htmx bool, cookie *http.Cookie) *http.Request {
	form := url.Values{"category": {category}}
	req := httptest.NewRequest(http.MethodPost, "/selection", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("response did not set %s", SessionCookie)
	return nil
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	if _, err := NewServer(":0", Options{}); err == nil {
		t.Fatal("expected error without registry and composer")
	}
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Power BI-Inspired Dashboard",
		"Category Value Comparison",
		"Displaying data for category: A",
		"Key Performance Indicators",
		"$54",
		"$13.50",
		"Show More Details",
		"Monthly Sales Trend",
		`<option value="A" selected>`,
		"--kpi-accent:#0078d4",
		"<polyline",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if strings.Count(body, `class="bar"`) != 4 {
		t.Errorf("expected 4 bars, got %d", strings.Count(body, `class="bar"`))
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request ID header missing")
	}
	sessionCookie(t, rr)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	if rr := do(srv, httptest.NewRequest(http.MethodGet, "/nope", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("status=%d, want 404", rr.Code)
	}
}

func TestSelection_HTMXPartial(t *testing.T) {
	pub := &recordingPublisher{}
	srv := newTestServer(t, pub)

	rr := do(srv, selectionRequest("C", true, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `id="dashboard"`) {
		t.Error("partial should contain the dashboard element")
	}
	if strings.Contains(body, "<html") {
		t.Error("partial must not contain the page shell")
	}
	if !strings.Contains(body, "Displaying data for category: C") {
		t.Error("partial should show category C")
	}
	if !strings.Contains(body, "<td>C</td><td>7</td>") {
		t.Error("filtered table should hold the C row")
	}
	if !strings.Contains(body, "$54") || !strings.Contains(body, "$13.50") {
		t.Error("metrics must stay global after filtering")
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, `"selection:changed"`) || !strings.Contains(trigger, `"category":"C"`) {
		t.Errorf("HX-Trigger = %q", trigger)
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, `"show-notification"`) || !strings.Contains(trigger, "Showing category C") {
		t.Errorf("HX-Trigger should carry the success notification: %q", trigger)
	}
	if got := rr.Header().Get("Vary"); got != "HX-Request" {
		t.Errorf("Vary = %q, want HX-Request", got)
	}

	cookie := sessionCookie(t, rr)
	if len(pub.events) != 1 || pub.events[0].category != "C" || pub.events[0].sessionID != cookie.Value {
		t.Errorf("published events = %+v, cookie=%s", pub.events, cookie.Value)
	}
}

func TestSelection_PersistsForSession(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(srv, selectionRequest("D", false, nil))
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q", loc)
	}
	cookie := sessionCookie(t, rr)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = do(srv, req)
	if !strings.Contains(rr.Body.String(), "Displaying data for category: D") {
		t.Error("selection should persist for the session")
	}

	// A different browser starts at the default.
	rr = do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rr.Body.String(), "Displaying data for category: A") {
		t.Error("new sessions should start at the first category")
	}
}

func TestSelection_InvalidKeepsPrior(t *testing.T) {
	pub := &recordingPublisher{}
	srv := newTestServer(t, pub)

	rr := do(srv, selectionRequest("B", true, nil))
	cookie := sessionCookie(t, rr)

	rr = do(srv, selectionRequest("Z", true, cookie))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `class="error"`) {
		t.Errorf("expected error fragment, got %s", rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rr = do(srv, req)
	if !strings.Contains(rr.Body.String(), "Displaying data for category: B") {
		t.Error("invalid selection must retain the prior selection")
	}
	if len(pub.events) != 1 {
		t.Errorf("rejected selections must not be published, got %+v", pub.events)
	}
}

func TestSelection_PublishFailureDoesNotFailRequest(t *testing.T) {
	srv := newTestServer(t, &recordingPublisher{err: errors.New("broker down")})

	rr := do(srv, selectionRequest("A", true, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "selection_publish_failures_total 1") {
		t.Errorf("metrics missing publish failure count:\n%s", rr.Body.String())
	}
}

func TestSelection_WrongMethod(t *testing.T) {
	srv := newTestServer(t, nil)
	if rr := do(srv, httptest.NewRequest(http.MethodGet, "/selection", nil)); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status=%d, want 405", rr.Code)
	}
}

func TestSelection_RateLimited(t *testing.T) {
	composer := page.NewComposer(memory.NewSample(), page.DefaultContent(), nil)
	srv, err := NewServer(":0", Options{
		Registry:           session.NewRegistry(composer, session.DefaultConfig(), nil),
		Composer:           composer,
		RateLimitPerMinute: 1,
		Logger:             applog.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown(context.Background())

	do(srv, selectionRequest("A", true, nil))
	rr := do(srv, selectionRequest("B", true, nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}

func TestAPIPage(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/page", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var pg page.Page
	if err := json.Unmarshal(rr.Body.Bytes(), &pg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pg.Selection != "A" || pg.Metrics.Total != 54 || pg.Metrics.Average != 13.5 {
		t.Errorf("page = selection %q metrics %+v", pg.Selection, pg.Metrics)
	}
	if n := len(pg.Panels()); n != 18 {
		t.Errorf("expected 18 panels, got %d", n)
	}
}

func TestAPIPage_OneShotCategory(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/api/page", nil))
	cookie := sessionCookie(t, rr)

	req := httptest.NewRequest(http.MethodGet, "/api/page?category=C", nil)
	req.AddCookie(cookie)
	rr = do(srv, req)
	var pg page.Page
	if err := json.Unmarshal(rr.Body.Bytes(), &pg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pg.Selection != "C" {
		t.Errorf("selection = %q, want C", pg.Selection)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/page", nil)
	req.AddCookie(cookie)
	rr = do(srv, req)
	if err := json.Unmarshal(rr.Body.Bytes(), &pg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pg.Selection != "A" {
		t.Errorf("one-shot category must not change the session, got %q", pg.Selection)
	}

	rr = do(srv, httptest.NewRequest(http.MethodGet, "/api/page?category=Z", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown category status=%d, want 422", rr.Code)
	}
}

func TestReadyz_StoreFailure(t *testing.T) {
	composer := page.NewComposer(memory.NewSample(), page.DefaultContent(), nil)
	srv, err := NewServer(":0", Options{
		Registry: session.NewRegistry(composer, session.DefaultConfig(), nil),
		Composer: composer,
		Ready:    func(context.Context) error { return errors.New("db closed") },
		Logger:   applog.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown(context.Background())

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status=%d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "db closed") {
		t.Errorf("body should name the failure: %s", rr.Body.String())
	}
}

func TestIndex_StoreFailure(t *testing.T) {
	composer := page.NewComposer(failingStore{}, page.DefaultContent(), nil)
	srv, err := NewServer(":0", Options{
		Registry: session.NewRegistry(composer, session.DefaultConfig(), nil),
		Composer: composer,
		Logger:   applog.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown(context.Background())

	if rr := do(srv, httptest.NewRequest(http.MethodGet, "/", nil)); rr.Code != http.StatusInternalServerError {
		t.Errorf("status=%d, want 500", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, nil)
	do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	do(srv, selectionRequest("B", true, nil))

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"http_requests_total 2",
		"selection_changes_total 1",
		"render_passes_total 2",
		"sessions_created_total 2",
		"# TYPE uptime_seconds gauge",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, nil)
	rr := do(srv, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Cache-Control"), "max-age=3600") {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
}

func TestSelection_JSONBody(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/selection", strings.NewReader(`{"category":"D"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := do(srv, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var pg page.Page
	if err := json.Unmarshal(rr.Body.Bytes(), &pg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pg.Selection != "D" {
		t.Errorf("selection = %q, want D", pg.Selection)
	}

	req = httptest.NewRequest(http.MethodPost, "/selection", strings.NewReader(`{"category":"Q"}`))
	req.Header.Set("Content-Type", "application/json")
	rr = do(srv, req)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	var body struct {
		Error   string   `json:"error"`
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Options) != 4 || !strings.Contains(body.Error, `"Q"`) {
		t.Errorf("error body = %+v", body)
	}
}

func TestSelection_JSONRejectWithoutCategories(t *testing.T) {
	var buf bytes.Buffer
	store := &switchableStore{Store: memory.NewSample()}
	composer := page.NewComposer(store, page.DefaultContent(), nil)
	srv, err := NewServer(":0", Options{
		Registry: session.NewRegistry(composer, session.DefaultConfig(), nil),
		Composer: composer,
		Logger:   applog.New(applog.Config{Output: &buf}),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown(context.Background())

	jsonSelection := func(category string, cookie *http.Cookie) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/selection", strings.NewReader(`{"category":"`+category+`"}`))
		req.Header.Set("Content-Type", "application/json")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		return req
	}

	rr := do(srv, jsonSelection("B", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	cookie := sessionCookie(t, rr)

	store.down.Store(true)
	rr = do(srv, jsonSelection("Q", cookie))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["options"]; ok {
		t.Errorf("options should be omitted when the lookup fails: %v", body)
	}
	if !strings.Contains(body["error"].(string), `"Q"`) {
		t.Errorf("error = %v", body["error"])
	}

	out := buf.String()
	for _, want := range []string{"Category lookup failed", `error="read category table: store down"`, "operation=validate", "request_id=req_"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
