package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"kpidash/internal/core"
	applog "kpidash/internal/log"
	"kpidash/internal/page"
)

// handleIndex renders the full dashboard for the caller's session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := s.session(w, r)
	if err != nil {
		s.events.LogError(ctx, "Session lookup failed", err, applog.ComponentSession, applog.OpRead, nil)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	pg, err := sess.Render(ctx)
	if err != nil {
		s.events.LogError(ctx, "Render pass failed", err, applog.ComponentPage, applog.OpRender,
			applog.NewFields().WithSelection(sess.ID(), sess.Selection()))
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}
	s.recordRender(ctx, pg)

	body, err := s.render("index.html", newPageView(pg, s.theme))
	if err != nil {
		s.events.LogError(ctx, "Index template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": "index.html"})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handleSelection applies a category choice. htmx callers receive the
// re-rendered dashboard fragment, JSON callers the page, and plain form posts
// are redirected to /.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse body error", applog.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}
	category := parser.Get(page.SelectName)

	sess, err := s.session(w, r)
	if err != nil {
		s.events.LogError(ctx, "Session lookup failed", err, applog.ComponentSession, applog.OpRead, nil)
		InternalServerError("Session unavailable").Write(w)
		return
	}

	pg, err := sess.OnSelectionChanged(ctx, category)
	if errors.Is(err, core.ErrInvalidCategory) {
		s.appMetrics.selectionRejected.Add(1)
		logger.WarnContext(ctx, "Selection rejected",
			applog.FieldSessionID, sess.ID(),
			applog.FieldCategory, category,
			"kept", sess.Selection())
		msg := fmt.Sprintf("Unknown category %q", category)
		if parser.IsJSON() {
			body := map[string]any{"error": msg}
			if cats, err := s.composer.Categories(ctx); err != nil {
				s.events.LogError(ctx, "Category lookup failed", err, applog.ComponentPage, applog.OpValidate, nil)
			} else {
				body["options"] = cats
			}
			writeJSON(w, http.StatusUnprocessableEntity, body)
			return
		}
		UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	if err != nil {
		s.events.LogError(ctx, "Render pass failed", err, applog.ComponentPage, applog.OpRender,
			applog.NewFields().WithSelection(sess.ID(), category))
		InternalServerError("Dashboard unavailable").Write(w)
		return
	}

	s.appMetrics.selectionChanges.Add(1)
	s.recordRender(ctx, pg)
	s.events.LogSelectionChanged(ctx, sess.ID(), category, len(pg.Panels()))
	s.publishSelection(ctx, sess.ID(), category)

	if parser.IsJSON() {
		writeJSON(w, http.StatusOK, pg)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	body, err := s.render("dashboard", newPageView(pg, s.theme))
	if err != nil {
		s.events.LogError(ctx, "Dashboard template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": "dashboard"})
		InternalServerError("Template error").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerSelectionChanged(category).
		TriggerSuccessNotification(fmt.Sprintf("Showing category %s", category)).
		Header("Vary", "HX-Request").
		BodyHTML(string(body)).
		Write(w)
}

// handleAPIPage returns the page as JSON. A category query parameter renders
// that category once without changing the session's selection.
func (s *Server) handleAPIPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	category := sanitizeInput(r.URL.Query().Get(page.SelectName))
	if category != "" {
		cats, err := s.composer.Categories(ctx)
		if err != nil {
			s.events.LogError(ctx, "Category lookup failed", err, applog.ComponentPage, applog.OpValidate, nil)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "data unavailable"})
			return
		}
		if !slices.Contains(cats, category) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   fmt.Sprintf("unknown category %q", category),
				"options": cats,
			})
			return
		}
		pg, err := s.composer.Compose(ctx, category)
		if err != nil {
			s.events.LogError(ctx, "Render pass failed", err, applog.ComponentPage, applog.OpRender,
				applog.LogFields{applog.FieldCategory: category})
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
			return
		}
		s.recordRender(ctx, pg)
		writeJSON(w, http.StatusOK, pg)
		return
	}

	sess, err := s.session(w, r)
	if err != nil {
		s.events.LogError(ctx, "Session lookup failed", err, applog.ComponentSession, applog.OpRead, nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
		return
	}
	pg, err := sess.Render(ctx)
	if err != nil {
		s.events.LogError(ctx, "Render pass failed", err, applog.ComponentPage, applog.OpRender,
			applog.NewFields().WithSelection(sess.ID(), sess.Selection()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}
	s.recordRender(ctx, pg)
	writeJSON(w, http.StatusOK, pg)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady checks templates and the data store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	storeErr := func() error {
		if s.ready != nil {
			return s.ready(ctx)
		}
		_, err := s.composer.Categories(ctx)
		return err
	}()
	if storeErr != nil {
		checks["store"] = fmt.Sprintf("failed: %v", storeErr)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	stats := s.registry.Stats()
	checks["sessions"] = map[string]any{
		"active": stats.Active,
		"status": "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	sessions := s.registry.Stats()
	m := s.appMetrics

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("render_passes_total", "counter", "Completed render passes", m.renders.Load())
	metric("panel_failures_total", "counter", "Panels replaced by an error panel", m.panelFailures.Load())
	metric("selection_changes_total", "counter", "Accepted selection changes", m.selectionChanges.Load())
	metric("selection_rejected_total", "counter", "Rejected selection changes", m.selectionRejected.Load())
	metric("selection_publish_failures_total", "counter", "Selection events that could not be published", m.publishFailures.Load())
	metric("sessions_active", "gauge", "Sessions currently held", sessions.Active)
	metric("sessions_created_total", "counter", "Sessions created", sessions.Created)
	metric("sessions_evicted_total", "counter", "Sessions evicted by TTL or capacity", sessions.Evicted)
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(m.uptime).Seconds()))
}

// session returns the caller's session and refreshes its cookie.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*page.Session, error) {
	sess, created, err := s.registry.Get(r.Context(), sessionID(r))
	if err != nil {
		return nil, err
	}
	if created {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Session started", applog.FieldSessionID, sess.ID())
	}
	setSessionCookie(w, r, sess.ID(), s.sessionTTL)
	return sess, nil
}

func (s *Server) recordRender(ctx context.Context, pg page.Page) {
	s.appMetrics.renders.Add(1)
	if failures := pg.Failures(); len(failures) > 0 {
		s.appMetrics.panelFailures.Add(int64(len(failures)))
		for _, f := range failures {
			applog.FromContext(ctx).WarnContext(ctx, "Panel rendered as error",
				applog.FieldPanel, f.Component,
				applog.FieldError, f.Message)
		}
	}
}

func (s *Server) publishSelection(ctx context.Context, sessionID, category string) {
	if err := s.publisher.PublishSelectionChanged(ctx, sessionID, category); err != nil {
		s.appMetrics.publishFailures.Add(1)
		applog.FromContext(ctx).WarnContext(ctx, "Selection event not published",
			applog.FieldError, err,
			applog.FieldSessionID, sessionID,
			applog.FieldCategory, category,
			applog.FieldOperation, applog.OpPublish)
	}
}
