package cli

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mchmarny/riskpulse/pkg/data"
	"github.com/mchmarny/riskpulse/pkg/engine"
	"github.com/mchmarny/riskpulse/pkg/table"
	"github.com/mchmarny/riskpulse/pkg/whatif"
)

// api serves the scoring endpoints over one engine and action store.
type api struct {
	engine  *engine.Engine
	store   data.Store
	seed    uint64
	horizon int
}

// ActionRequest records an intervention.
type ActionRequest struct {
	SubjectID string `json:"subject_id"`
	Action    string `json:"action"`
	Note      string `json:"note,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps domain errors onto status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var (
		se *engine.SchemaValidationError
		ve *engine.ValueError
	)
	switch {
	case errors.As(err, &se):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    err.Error(),
			"pipeline": se.Pipeline,
			"missing":  se.Missing,
		})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  err.Error(),
			"row":    ve.Row,
			"column": ve.Column,
		})
	case errors.Is(err, engine.ErrInvalidHorizon),
		errors.Is(err, whatif.ErrOutOfRange),
		errors.Is(err, data.ErrInvalidAction),
		errors.Is(err, table.ErrEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, data.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, serverMaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func decodeTable(w http.ResponseWriter, r *http.Request) (*table.Table, bool) {
	t, err := table.Read(http.MaxBytesReader(w, r.Body, serverMaxBodyBytes))
	if err != nil {
		if errors.Is(err, table.ErrEmpty) {
			writeFailure(w, err)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid CSV body: "+err.Error())
		return nil, false
	}
	return t, true
}

func queryParamInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
}

func (a *api) featuresHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Table())
}

func (a *api) scoreHandler(w http.ResponseWriter, r *http.Request) {
	horizon, err := queryParamInt(r, "horizon", a.horizon)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid horizon")
		return
	}
	var v engine.FeatureVector
	if !decodeJSON(w, r, &v) {
		return
	}
	res, err := scoreSubject(a.engine, v, horizon)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) explainHandler(w http.ResponseWriter, r *http.Request) {
	var v engine.FeatureVector
	if !decodeJSON(w, r, &v) {
		return
	}
	res, err := explainSubject(a.engine, v)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) tierHandler(w http.ResponseWriter, r *http.Request) {
	risk, err := strconv.ParseFloat(r.URL.Query().Get("risk"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid risk")
		return
	}

	var tier engine.Tier
	switch engine.Pipeline(r.URL.Query().Get("pipeline")) {
	case engine.PipelineBatch:
		tier = engine.BatchTierFor(risk)
	case engine.PipelineSubject, "":
		tier = engine.TierFor(risk)
	default:
		writeError(w, http.StatusBadRequest, "invalid pipeline")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"risk": risk, "tier": tier})
}

func (a *api) checkHandler(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeTable(w, r)
	if !ok {
		return
	}
	out, err := checkTable(a.engine, in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	if err := table.Write(w, out); err != nil {
		slog.Error("failed to write CSV response", "error", err)
	}
}

func (a *api) batchHandler(w http.ResponseWriter, r *http.Request) {
	seed := a.seed
	if s := r.URL.Query().Get("seed"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid seed")
			return
		}
		seed = v
	}
	in, ok := decodeTable(w, r)
	if !ok {
		return
	}
	rows, err := scoreBatchTable(r.Context(), in, seed)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *api) roiHandler(w http.ResponseWriter, r *http.Request) {
	d := whatif.DefaultAssumptions()
	req := ROIRequest{
		Coverage:       d.Coverage,
		Efficacy:       d.Efficacy,
		CostPerEvent:   d.CostPerEvent,
		CostPerPatient: d.CostPerPatient,
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := runROI(req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) addActionHandler(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	act, err := data.NewAction(req.SubjectID, req.Action, req.Note)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := a.store.AddAction(r.Context(), act); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, act)
}

func (a *api) listActionsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.ListActions(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if list == nil {
		list = []*data.Action{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) getActionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid action id")
		return
	}
	act, err := a.store.GetAction(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, act)
}
