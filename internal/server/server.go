// Package server exposes the engine state over a JSON HTTP API for the
// dashboard shell: the editable capacity records, the derived rated view,
// the historical ledger, month-to-month comparisons, and an XLSX export.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rewired-gh/gridledger/internal/aggregate"
	"github.com/rewired-gh/gridledger/internal/ledger"
	"github.com/rewired-gh/gridledger/internal/logger"
	"github.com/rewired-gh/gridledger/internal/models"
	"github.com/rewired-gh/gridledger/internal/month"
	"github.com/rewired-gh/gridledger/internal/report"
	"github.com/rewired-gh/gridledger/internal/snapshot"
)

// Server wires the snapshot store and ledger into HTTP handlers.
type Server struct {
	snapshots *snapshot.Store
	history   *ledger.Ledger
}

// New constructs a server.
func New(snapshots *snapshot.Store, history *ledger.Ledger) (*Server, error) {
	if snapshots == nil {
		return nil, errors.New("server: nil snapshot store")
	}
	if history == nil {
		return nil, errors.New("server: nil ledger")
	}
	registerEngineMetrics(snapshots, history)
	return &Server{snapshots: snapshots, history: history}, nil
}

// Routes returns the HTTP mux for the engine API.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/capacity", instrument("capacity", s.handleCapacity))
	mux.HandleFunc("/api/v1/capacity/installed", instrument("capacity_installed", s.handleSetInstalled))
	mux.HandleFunc("/api/v1/capacity/plf", instrument("capacity_plf", s.handleSetPLF))
	mux.HandleFunc("/api/v1/history", instrument("history", s.handleHistory))
	mux.HandleFunc("/api/v1/history/compare", instrument("history_compare", s.handleCompare))
	mux.HandleFunc("/api/v1/history/export", instrument("history_export", s.handleExport))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// capacityResponse is the per-tick UI contract for the snapshot store.
type capacityResponse struct {
	Installed      models.Record `json:"installed"`
	PLF            models.Record `json:"plf"`
	Rated          models.Record `json:"rated"`
	InstalledTotal float64       `json:"installed_total"`
	RatedTotal     float64       `json:"rated_total"`
	Loaded         bool          `json:"loaded"`
}

func (s *Server) capacityState() capacityResponse {
	installed := s.snapshots.Installed()
	rated := s.snapshots.Rated()
	return capacityResponse{
		Installed:      installed,
		PLF:            s.snapshots.PLF(),
		Rated:          rated,
		InstalledTotal: aggregate.Round2(aggregate.Total(installed)),
		RatedTotal:     aggregate.Round2(aggregate.Total(rated)),
		Loaded:         s.snapshots.Loaded(),
	}
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.capacityState())
}

func (s *Server) handleSetInstalled(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, s.snapshots.SetInstalled)
}

func (s *Server) handleSetPLF(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, s.snapshots.SetPLF)
}

// handleMutation applies a {source: value} body to one of the editable
// records. Values go through the engine's coercion (and, for PLF, clamping)
// policy; only source names outside the fixed enumeration are rejected.
func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request, set func(models.Source, float64) error) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	// Apply in enumeration order so persistence write order is deterministic.
	for _, src := range models.AllSources {
		v, ok := body[string(src)]
		if !ok {
			continue
		}
		if err := set(src, v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		delete(body, string(src))
	}
	for name := range body {
		http.Error(w, "unknown energy source: "+name, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.capacityState())
}

type historyEntry struct {
	Month  month.Key     `json:"month"`
	Values models.Record `json:"values"`
	Total  float64       `json:"total"`
}

type historyResponse struct {
	Entries []historyEntry `json:"entries"`
	Loaded  bool           `json:"loaded"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries := s.history.Entries()
	resp := historyResponse{Entries: make([]historyEntry, 0, len(entries)), Loaded: s.history.Loaded()}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, historyEntry{
			Month:  e.Month,
			Values: e.Values,
			Total:  aggregate.Round2(aggregate.Total(e.Values)),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start, ok := month.Normalize(r.URL.Query().Get("start"))
	if !ok {
		http.Error(w, "start is not a recognizable month", http.StatusBadRequest)
		return
	}
	end, ok := month.Normalize(r.URL.Query().Get("end"))
	if !ok {
		http.Error(w, "end is not a recognizable month", http.StatusBadRequest)
		return
	}
	delta, err := s.history.Compare(start, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, delta)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := report.BuildCapacityXLSX(
		s.snapshots.Installed(),
		s.snapshots.PLF(),
		s.snapshots.Rated(),
		s.history.Entries(),
	)
	if err != nil {
		logger.Error("XLSX export failed: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="capacity.xlsx"`)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

// instrument counts requests per logical endpoint name.
func instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpRequestsTotal.WithLabelValues(name, strings.ToUpper(r.Method)).Inc()
		next(w, r)
	}
}
