package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/export"
	"orcamento/internal/identity"
)

var errTemplatesUnavailable = errors.New("templates not loaded")

// indexPage is the data of the editor page.
type indexPage struct {
	User           identity.User
	Quote          export.Quote
	Profile        core.CompanyProfile
	MaxUploadMB    int64
	ArchiveEnabled bool
}

// quotePartial is the data of the quote fragment swapped by HTMX.
type quotePartial struct {
	Quote          export.Quote
	ArchiveEnabled bool
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the templates and the profile store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ping == nil:
		checks["profile_store"] = "ok"
	default:
		if err := s.ping(ctx); err != nil {
			checks["profile_store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["profile_store"] = "ok"
		}
	}

	checks["sessions"] = s.sessions.len()
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides request and security counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMW.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	secMetrics := s.detector.GetMetrics()

	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_last_response_microseconds", "gauge", "Duration of the last request", traceMetrics.LastResponseTimeUS)
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", limitMetrics.ClientCount)
	metric("security_blocked_requests_total", "counter", "Requests blocked as suspicious", secMetrics.BlockedRequests)
	metric("sessions_active", "gauge", "Signed-in sessions", int64(s.sessions.len()))
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.started).Seconds()))
}

// handleIndex renders the quote editor.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if errResp := RequireMethod(r, http.MethodGet, http.MethodHead); errResp != nil {
		errResp.Write(w)
		return
	}

	u := userFrom(r.Context())
	q := s.budget.Quote(r.Context(), u.UID)
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, http.StatusOK, "index", indexPage{
		User:           u,
		Quote:          q,
		Profile:        q.Company,
		MaxUploadMB:    s.maxUpload >> 20,
		ArchiveEnabled: s.budget.ArchiveEnabled(),
	})
}

// handleQuotePartial renders the quote fragment.
func (s *Server) handleQuotePartial(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet); errResp != nil {
		errResp.Write(w)
		return
	}
	s.writeQuote(w, r, NewHTMXResponse())
}

// writeQuote renders the current quote of the caller into resp and sends it.
func (s *Server) writeQuote(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder) {
	u := userFrom(r.Context())
	body, err := s.executeTemplate("quote", quotePartial{
		Quote:          s.budget.Quote(r.Context(), u.UID),
		ArchiveEnabled: s.budget.ArchiveEnabled(),
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to render quote", "error", err, "uid", u.UID)
		InternalServerError("Erro ao montar o orçamento.").Write(w)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	resp.BodyHTML(string(body)).Write(w)
}
