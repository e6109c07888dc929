package http

import (
	"encoding/json"
	"net/http"

	"finstress/internal/core"
)

// budgetProbe detects the text form of POST /api/budget.
type budgetProbe struct {
	Description *string `json:"description"`
}

// handleCreateBudget accepts {"description": "..."} for model-structured input
// or a budget payload with income, savings and expenses.
func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var probe budgetProbe
	_ = json.Unmarshal(body, &probe)

	var rec core.BudgetRecord
	if probe.Description != nil {
		if err := decodeStrict(body, &probe); err != nil {
			writeError(w, r, err)
			return
		}
		rec, err = s.deps.Budgets.FromDescription(r.Context(), *probe.Description)
	} else {
		var p core.BudgetPayload
		if err := decodeStrict(body, &p); err != nil {
			writeError(w, r, err)
			return
		}
		rec, err = s.deps.Budgets.FromPayload(r.Context(), p)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Budgets.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
