package http

import (
	"net/http"
	"strings"

	"finstress/internal/core"
)

// recommendRequest names a stored snapshot or carries one inline. Inline
// snapshots are answered without being stored. Kind defaults to general; for a
// stored snapshot only the general set is persisted.
type recommendRequest struct {
	SnapshotID string                  `json:"snapshot_id,omitempty"`
	Snapshot   *core.FinancialSnapshot `json:"snapshot,omitempty"`
	Kind       string                  `json:"kind,omitempty"`
}

type recommendResponse struct {
	Kind            core.RecommendationKind `json:"kind"`
	Recommendations []string                `json:"recommendations"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	kind, err := core.ParseRecommendationKind(req.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := strings.TrimSpace(req.SnapshotID)
	switch {
	case id != "" && req.Snapshot != nil:
		writeError(w, r, exactlyOne())
	case id != "" && kind == core.KindGeneral:
		rec, err := s.deps.Recommender.RecommendForSnapshot(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case id != "":
		items, err := s.deps.Recommender.RecommendStored(r.Context(), id, kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, recommendResponse{Kind: kind, Recommendations: items})
	case req.Snapshot != nil:
		items, err := s.deps.Recommender.Recommend(r.Context(), req.Snapshot.ApplyDefaults(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, recommendResponse{Kind: kind, Recommendations: items})
	default:
		writeError(w, r, exactlyOne())
	}
}

func exactlyOne() error {
	verr := &core.ValidationError{}
	verr.Add("snapshot_id", "exactly one of snapshot_id and snapshot is required")
	return verr
}

func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Recommender.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
