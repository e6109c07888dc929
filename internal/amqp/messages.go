package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// RecommendationRequest asks the worker to generate recommendations for a
// stored snapshot. It carries only the ID; the worker loads the snapshot.
type RecommendationRequest struct {
	SnapshotID string    `json:"snapshot_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRecommendationRequest(snapshotID string) *RecommendationRequest {
	return &RecommendationRequest{SnapshotID: snapshotID, Timestamp: time.Now().UTC()}
}

func (m *RecommendationRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecommendationRequestFromJSON(data []byte) (*RecommendationRequest, error) {
	var msg RecommendationRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SnapshotID == "" {
		return nil, errors.New("missing snapshot_id")
	}
	return &msg, nil
}
