package http

import (
	"net/http"
	"time"

	"github.com/secmon-lab/tonecheck/pkg/service/worker"
)

// LedgerProbe reports the latest known ledger availability
type LedgerProbe interface {
	Last() worker.ProbeResult
}

// CacheStats exposes memory cache occupancy
type CacheStats interface {
	Len() int
	Limit() int
	InFlightCount() int
}

// HealthReporter collects what GET /health reports. Nil fields are reported
// as unavailable.
type HealthReporter struct {
	Version   string
	StartedAt time.Time
	Ledger    LedgerProbe
	Engine    string
	Tickets   interface{ Configured() bool }
	Cache     CacheStats
}

type healthDependencies struct {
	Ledger           bool `json:"ledger"`
	EvaluationEngine bool `json:"evaluation_engine"`
	TicketSource     bool `json:"ticket_source"`
}

type healthCache struct {
	Size     int `json:"size"`
	Limit    int `json:"limit"`
	InFlight int `json:"in_flight"`
}

type healthResponse struct {
	Status        string             `json:"status"`
	Version       string             `json:"version"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Engine        string             `json:"engine,omitempty"`
	LedgerError   string             `json:"ledger_error,omitempty"`
	Dependencies  healthDependencies `json:"dependencies"`
	Cache         healthCache        `json:"cache"`
}

func (h *HealthReporter) report(now time.Time) healthResponse {
	resp := healthResponse{
		Status:  "ok",
		Version: h.Version,
		Engine:  h.Engine,
	}
	if !h.StartedAt.IsZero() {
		resp.UptimeSeconds = int64(now.Sub(h.StartedAt).Seconds())
	}

	if h.Ledger != nil {
		last := h.Ledger.Last()
		resp.Dependencies.Ledger = last.Available
		resp.LedgerError = last.Error
	}
	resp.Dependencies.EvaluationEngine = h.Engine != ""
	resp.Dependencies.TicketSource = h.Tickets != nil && h.Tickets.Configured()

	if h.Cache != nil {
		resp.Cache = healthCache{
			Size:     h.Cache.Len(),
			Limit:    h.Cache.Limit(),
			InFlight: h.Cache.InFlightCount(),
		}
	}

	deps := resp.Dependencies
	if !deps.Ledger || !deps.EvaluationEngine || !deps.TicketSource {
		resp.Status = "degraded"
	}
	return resp
}

func healthHandler(h *HealthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, h.report(time.Now()))
	}
}

func reportHandler(url string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if url == "" {
			writeJSON(r.Context(), w, http.StatusOK, map[string]string{
				"message": "No ledger with a viewable report is configured.",
			})
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
	}
}
