package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finstress/internal/ai"
	"finstress/internal/core"
	applog "finstress/internal/log"
	ports "finstress/internal/sheets"
)

// Recommender produces advice lines for a snapshot through the model.
type Recommender struct {
	structurer ai.Structurer
	snapshots  ports.SnapshotStore
	recs       ports.RecommendationStore
	now        func() time.Time
	logger     *applog.Logger
}

func NewRecommender(structurer ai.Structurer, snapshots ports.SnapshotStore, recs ports.RecommendationStore, logger *applog.Logger) *Recommender {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Recommender{
		structurer: structurer,
		snapshots:  snapshots,
		recs:       recs,
		now:        time.Now,
		logger:     logger.WithComponent(applog.ComponentRecommend),
	}
}

type recommendationOutput struct {
	Recommendations *[]string `json:"recommendations"`
}

// Recommend returns the model's recommendations of the given kind for s
// without storing them.
func (r *Recommender) Recommend(ctx context.Context, s core.FinancialSnapshot, kind core.RecommendationKind) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	kind, err := core.ParseRecommendationKind(string(kind))
	if err != nil {
		return nil, err
	}
	if r.structurer == nil {
		return nil, fmt.Errorf("recommend: no model configured: %w", core.ErrGeneration)
	}
	p, err := recommendationPrompt(s, kind)
	if err != nil {
		return nil, err
	}
	raw, err := r.structurer.Structure(ctx, p, recommendationSchema)
	if err != nil {
		return nil, fmt.Errorf("structure recommendations: %w", err)
	}

	var out recommendationOutput
	if err := ai.DecodeSchema(raw, recommendationSchema, &out); err != nil {
		return nil, err
	}
	if out.Recommendations == nil {
		return nil, fmt.Errorf("model output missing recommendations: %w", core.ErrGeneration)
	}
	items := make([]string, 0, len(*out.Recommendations))
	for _, item := range *out.Recommendations {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

// RecommendForSnapshot loads a stored snapshot, generates recommendations and
// stores them. Running it twice replaces the earlier set.
func (r *Recommender) RecommendForSnapshot(ctx context.Context, snapshotID string) (core.Recommendations, error) {
	rec, err := r.snapshots.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return core.Recommendations{}, err
	}
	items, err := r.Recommend(ctx, rec.Snapshot, core.KindGeneral)
	if err != nil {
		return core.Recommendations{}, err
	}
	out := core.Recommendations{SnapshotID: rec.ID, Items: items, CreatedAt: r.now().UTC()}
	if err := r.recs.SaveRecommendations(ctx, out); err != nil {
		return core.Recommendations{}, fmt.Errorf("save recommendations: %w", err)
	}
	r.logger.InfoContext(ctx, "Recommendations stored",
		applog.FieldOperation, applog.OpRecommend,
		applog.FieldSnapshotID, rec.ID,
		"count", len(items))
	return out, nil
}

// RecommendStored answers for a stored snapshot without touching its stored
// general set.
func (r *Recommender) RecommendStored(ctx context.Context, snapshotID string, kind core.RecommendationKind) ([]string, error) {
	rec, err := r.snapshots.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	return r.Recommend(ctx, rec.Snapshot, kind)
}

func (r *Recommender) Get(ctx context.Context, snapshotID string) (core.Recommendations, error) {
	return r.recs.GetRecommendations(ctx, snapshotID)
}
