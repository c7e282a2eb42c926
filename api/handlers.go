/*
handlers.go - HTTP API handlers for the factor pool

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to factor.Engine.

ENDPOINTS:
  GET    /api/factors/{name}           Filtered read (ids, start, end)
  POST   /api/factors/{name}           Save (mode=APPEND|REPLACE)
  POST   /api/factors/{name}/plan      Dry run of a save
  GET    /api/factors/{name}/columns   Persisted security columns
  GET    /api/factors/{name}/stats     Column summaries over a date range
  GET    /api/health                   Liveness

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid mode, malformed table, decreasing index, bad dates
  - 404: Table not found
  - 500: Store errors

WRITES:
  The engine is single-writer per table. This layer does not serialize
  concurrent saves to the same table; deployments run one writer.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/yearone/factor-pool/factor"
	"github.com/yearone/factor-pool/stats"
)

// statsDefaultStart is the lower bound of a stats read without start.
var statsDefaultStart = factor.NewDate(1900, 1, 1)

// maxBodyBytes caps save and plan request bodies.
const maxBodyBytes = 64 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *factor.Engine
	log    zerolog.Logger
}

// NewHandler creates a new handler over the given engine.
func NewHandler(engine *factor.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		Engine: engine,
		log:    log.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// FACTOR ENDPOINTS
// =============================================================================

// GetFactor returns a filtered factor table.
// GET /api/factors/{name}?ids=AAPL,MSFT&start=2020-01-01&end=2020-12-31
func (h *Handler) GetFactor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required", nil)
		return
	}
	start, end, err := parseRange(r, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	t, err := h.Engine.Get(r.Context(), name, ids, start, end)
	if err != nil {
		h.writeEngineError(w, "Failed to read factor", err)
		return
	}
	writeJSON(w, http.StatusOK, toFactorTableDTO(name, t))
}

// SaveFactor persists a factor update.
// POST /api/factors/{name}?mode=APPEND
func (h *Handler) SaveFactor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	mode, update, ok := h.decodeSave(w, r)
	if !ok {
		return
	}
	if err := h.Engine.Save(r.Context(), update, name, mode); err != nil {
		h.writeEngineError(w, "Failed to save factor", err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Table: name, Mode: string(mode), Submitted: update.Len()})
}

// PlanSave reports what a save would do without writing.
// POST /api/factors/{name}/plan?mode=APPEND
func (h *Handler) PlanSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	mode, update, ok := h.decodeSave(w, r)
	if !ok {
		return
	}
	plan, err := h.Engine.Plan(r.Context(), update, name, mode)
	if err != nil {
		h.writeEngineError(w, "Failed to plan save", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(plan))
}

// ListColumns returns the persisted security columns.
// GET /api/factors/{name}/columns
func (h *Handler) ListColumns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	columns, err := h.Engine.Columns(r.Context(), name)
	if err != nil {
		h.writeEngineError(w, "Failed to list columns", err)
		return
	}
	writeJSON(w, http.StatusOK, ColumnsDTO{Table: name, Columns: nonNil(columns)})
}

// GetStats summarizes factor columns over a date range. Without ids every
// column is summarized; without start the range is open to the past.
// GET /api/factors/{name}/stats?ids=AAPL&start=2020-01-01
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := r.Context()

	start, end, err := parseRange(r, &statsDefaultStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		if ids, err = h.Engine.Columns(ctx, name); err != nil {
			h.writeEngineError(w, "Failed to list columns", err)
			return
		}
	}

	t, err := h.Engine.Get(ctx, name, ids, start, end)
	if err != nil {
		h.writeEngineError(w, "Failed to read factor", err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Describe(t))
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decodeSave(w http.ResponseWriter, r *http.Request) (factor.Mode, *factor.Table, bool) {
	modeParam := r.URL.Query().Get("mode")
	if modeParam == "" {
		modeParam = string(factor.ModeAppend)
	}
	mode, err := factor.ParseMode(strings.ToUpper(modeParam))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid mode", err)
		return "", nil, false
	}

	var req FactorTableRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return "", nil, false
	}
	update, err := req.toTable()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid factor table", err)
		return "", nil, false
	}
	return mode, update, true
}

// writeEngineError maps engine errors to HTTP status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case factor.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, factor.ErrNoSuchTable):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// parseRange reads start and end query parameters. start falls back to
// defaultStart when given; end stays nil (today) when absent.
func parseRange(r *http.Request, defaultStart *factor.Date) (factor.Date, *factor.Date, error) {
	q := r.URL.Query()

	var start factor.Date
	switch s := q.Get("start"); {
	case s != "":
		d, err := factor.ParseDate(s)
		if err != nil {
			return factor.Date{}, nil, err
		}
		start = d
	case defaultStart != nil:
		start = *defaultStart
	default:
		return factor.Date{}, nil, fmt.Errorf("start is required")
	}

	var end *factor.Date
	if s := q.Get("end"); s != "" {
		d, err := factor.ParseDate(s)
		if err != nil {
			return factor.Date{}, nil, err
		}
		end = &d
	}
	return start, end, nil
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
