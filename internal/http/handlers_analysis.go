package http

import (
	"net/http"
	"strconv"

	"finstress/internal/charts"
	"finstress/internal/core"
	"finstress/internal/services"
)

type (
	scoreResponse struct {
		StressScore float64                `json:"stress_score"`
		Snapshot    core.FinancialSnapshot `json:"snapshot"`
	}

	batchRequest struct {
		Snapshots []core.FinancialSnapshot `json:"snapshots"`
	}

	batchResponse struct {
		Results []services.BatchItem `json:"results"`
	}

	chartRequest struct {
		Transactions []core.Transaction `json:"transactions"`
		ByBucket     bool               `json:"by_bucket"`
		Width        int                `json:"width,omitempty"`
		Height       int                `json:"height,omitempty"`
	}
)

const maxChartSide = 4000

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var in services.AnalysisInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.deps.Analysis.Analyze(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStressScore(w http.ResponseWriter, r *http.Request) {
	var snap core.FinancialSnapshot
	if err := decodeJSON(w, r, &snap); err != nil {
		writeError(w, r, err)
		return
	}
	scored, err := s.deps.Analysis.ScoreSnapshot(r.Context(), snap)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{StressScore: *scored.StressScore, Snapshot: scored})
}

// handleStressScoreBatch reports per-item failures inside a 200 response.
func (s *Server) handleStressScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.deps.Analysis.ScoreBatch(r.Context(), req.Snapshots)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: items})
}

func (s *Server) handleSummaryChart(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Width < 0 || req.Height < 0 || req.Width > maxChartSide || req.Height > maxChartSide {
		verr := &core.ValidationError{}
		verr.Add("width/height", "must be between 0 and "+strconv.Itoa(maxChartSide))
		writeError(w, r, verr)
		return
	}

	sum, err := s.deps.Analysis.Summarize(r.Context(), req.Transactions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := charts.SpendPie(sum, charts.Options{Width: req.Width, Height: req.Height, ByBucket: req.ByBucket})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
