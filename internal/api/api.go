// Package api serves the board read-only over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/metrics"
	"github.com/alexanderramin/edboard/internal/stats"
)

// Handler exposes board state, alarms and statistics as JSON.
type Handler struct {
	board  *board.Board
	logger *zap.Logger
}

func NewHandler(b *board.Board, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{board: b, logger: logger}
}

// Routes builds the router, including /healthz and /metrics.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/board", h.GetBoard)
		r.Get("/alarms", h.GetAlarms)
		r.Get("/stats", h.GetStats)
		r.Get("/stats/{stage}", h.GetStageStats)
	})
	return r
}

type stageCell struct {
	Stage      string                  `json:"stage"`
	Label      string                  `json:"label"`
	Status     string                  `json:"status"`
	Compliance domain.ComplianceResult `json:"compliance"`
	Alarmed    bool                    `json:"alarmed"`
}

type patientRow struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Location     string      `json:"location"`
	Area         string      `json:"area"`
	Tier         int         `json:"tier"`
	AdmittedAt   time.Time   `json:"admitted_at"`
	Disposition  string      `json:"disposition"`
	PendingNotes string      `json:"pending_notes,omitempty"`
	ConductAlarm bool        `json:"conduct_alarm"`
	LeftAt       *time.Time  `json:"left_at,omitempty"`
	Stages       []stageCell `json:"stages"`
}

type boardResponse struct {
	Stale       bool         `json:"stale"`
	RefreshedAt *time.Time   `json:"refreshed_at,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
	Patients    []patientRow `json:"patients"`
}

// GetBoard returns every patient with per-stage compliance and alarm flags.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	st := h.board.Status()
	if !st.Loaded {
		writeError(w, board.ErrNoSnapshot)
		return
	}
	resp := boardResponse{Stale: st.Stale, Patients: []patientRow{}}
	if !st.RefreshedAt.IsZero() {
		at := st.RefreshedAt
		resp.RefreshedAt = &at
	}
	if st.LastError != nil {
		resp.LastError = st.LastError.Error()
	}
	for _, p := range h.board.Patients() {
		row := patientRow{
			ID:           p.ID,
			Name:         p.Name,
			Location:     p.Location,
			Area:         p.Area(),
			Tier:         int(p.Tier),
			AdmittedAt:   p.AdmittedAt,
			Disposition:  string(p.Disposition),
			PendingNotes: p.PendingNotes,
			ConductAlarm: h.board.IsConductAlarmed(p.ID),
			LeftAt:       p.LeftAt(),
		}
		for _, k := range domain.AllStages() {
			row.Stages = append(row.Stages, stageCell{
				Stage:      k.String(),
				Label:      k.Label(),
				Status:     p.Stage(k).Status.String(),
				Compliance: h.board.ComplianceResult(p.ID, k),
				Alarmed:    h.board.IsAlarmed(p.ID, k),
			})
		}
		resp.Patients = append(resp.Patients, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

type alarmCell struct {
	PatientID string `json:"patient_id"`
	Stage     string `json:"stage"`
}

// GetAlarms returns the current alarm set.
func (h *Handler) GetAlarms(w http.ResponseWriter, r *http.Request) {
	if !h.board.Status().Loaded {
		writeError(w, board.ErrNoSnapshot)
		return
	}
	set := h.board.Alarms()
	cells := make([]alarmCell, 0, set.Len())
	for _, c := range set.Cells() {
		cells = append(cells, alarmCell{PatientID: c.PatientID, Stage: c.Stage.String()})
	}
	conduct := set.ConductPatients()
	if conduct == nil {
		conduct = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cells":   cells,
		"conduct": conduct,
	})
}

// GetStats aggregates all stages over the filtered population.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.board.Stats(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetStageStats aggregates a single stage.
func (h *Handler) GetStageStats(w http.ResponseWriter, r *http.Request) {
	stage, err := domain.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.board.AggregateStats(stage, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Health reports 200 once a snapshot is loaded, 503 before that.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.board.Status()
	code := http.StatusOK
	status := "ok"
	if !st.Loaded {
		code = http.StatusServiceUnavailable
		status = "starting"
	} else if st.Stale {
		status = "stale"
	}
	writeJSON(w, code, map[string]any{
		"status":   status,
		"patients": st.Patients,
	})
}

// badRequest marks errors caused by the caller's query string.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func parseFilter(r *http.Request) (stats.Filter, error) {
	q := r.URL.Query()
	f, err := stats.ParseFilter(q.Get("area"), q.Get("from"), q.Get("to"), q.Get("tier"))
	if err != nil {
		return stats.Filter{}, badRequest{err}
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, board.ErrNoSnapshot):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
