package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finstress/internal/core"
	applog "finstress/internal/log"
	ports "finstress/internal/sheets"
)

// RecommendationPublisher enqueues asynchronous recommendation jobs.
type RecommendationPublisher interface {
	PublishRecommendationRequest(ctx context.Context, snapshotID string) error
}

type AnalysisInput struct {
	Transactions   []core.Transaction  `json:"transactions"`
	Subscriptions  []core.Subscription `json:"subscriptions,omitempty"`
	Debts          []core.Debt         `json:"debts,omitempty"`
	CurrentSavings core.Money          `json:"current_savings"`
	SavingsGoal    core.Money          `json:"savings_goal"`
}

type AnalysisResult struct {
	SnapshotID string                 `json:"snapshot_id,omitempty"`
	Snapshot   core.FinancialSnapshot `json:"snapshot"`
	Score      float64                `json:"stress_score"`
	Summary    core.SpendSummary      `json:"summary"`
}

// BatchItem is the outcome for one snapshot of a batch. Exactly one of Score
// and Error is set.
type BatchItem struct {
	Index int      `json:"index"`
	Score *float64 `json:"stress_score,omitempty"`
	Error string   `json:"error,omitempty"`
	err   error
}

func (b BatchItem) Err() error { return b.err }

// AnalysisService runs the aggregate-then-score pipeline.
type AnalysisService struct {
	classifier  *core.Classifier
	snapshots   ports.SnapshotStore
	publisher   RecommendationPublisher
	timeFrame   int
	concurrency int
	logger      *applog.Logger
}

type AnalysisConfig struct {
	Classifier      *core.Classifier
	TimeFrameMonths int
	// Concurrency bounds batch scoring.
	Concurrency int
}

// NewAnalysisService wires the service. snapshots and publisher may be nil,
// in which case results are neither stored nor enqueued.
func NewAnalysisService(cfg AnalysisConfig, snapshots ports.SnapshotStore, publisher RecommendationPublisher, logger *applog.Logger) *AnalysisService {
	if cfg.Classifier == nil {
		cfg.Classifier = core.DefaultClassifier()
	}
	if cfg.TimeFrameMonths <= 0 {
		cfg.TimeFrameMonths = core.DefaultTimeFrameMonths
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AnalysisService{
		classifier:  cfg.Classifier,
		snapshots:   snapshots,
		publisher:   publisher,
		timeFrame:   cfg.TimeFrameMonths,
		concurrency: cfg.Concurrency,
		logger:      logger.WithComponent(applog.ComponentAnalysis),
	}
}

// Analyze validates the transactions, aggregates the latest month, scores it
// and summarizes spending. A stored snapshot gets a recommendation job.
func (s *AnalysisService) Analyze(ctx context.Context, in AnalysisInput) (AnalysisResult, error) {
	if err := validateTransactions(in.Transactions); err != nil {
		return AnalysisResult{}, err
	}

	snap, err := core.Aggregate(in.Transactions, s.classifier)
	if err != nil {
		return AnalysisResult{}, err
	}
	snap = snap.WithObligations(in.Subscriptions, in.Debts)
	snap.CurrentSavings = in.CurrentSavings
	snap.SavingsGoal = in.SavingsGoal
	snap.TimeFrameMonths = s.timeFrame

	score, err := core.Score(snap)
	if err != nil {
		return AnalysisResult{}, err
	}
	snap = snap.WithScore(score)

	summary, err := core.Summarize(in.Transactions, s.classifier)
	if err != nil {
		return AnalysisResult{}, err
	}

	res := AnalysisResult{Snapshot: snap, Score: score, Summary: summary}
	s.logger.InfoContext(ctx, "Snapshot scored",
		append(applog.NewFields().WithOperation(applog.OpScore).WithSnapshot(snap).ToSlice(),
			applog.FieldTransactions, len(in.Transactions))...)

	if s.snapshots == nil {
		return res, nil
	}
	rec, err := s.snapshots.SaveSnapshot(ctx, snap)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("save snapshot: %w", err)
	}
	res.SnapshotID = rec.ID

	if s.publisher != nil {
		if err := s.publisher.PublishRecommendationRequest(ctx, rec.ID); err != nil {
			// the worker's sweep picks up snapshots that were never enqueued
			s.logger.WarnContext(ctx, "Failed to enqueue recommendations",
				applog.FieldSnapshotID, rec.ID, applog.FieldError, err)
		}
	}
	return res, nil
}

// ScoreSnapshot scores a caller-built snapshot.
func (s *AnalysisService) ScoreSnapshot(ctx context.Context, snap core.FinancialSnapshot) (core.FinancialSnapshot, error) {
	snap = snap.ApplyDefaults()
	snap.StressScore = nil
	if err := snap.Validate(); err != nil {
		return core.FinancialSnapshot{}, err
	}
	score, err := core.Score(snap)
	if err != nil {
		return core.FinancialSnapshot{}, err
	}
	return snap.WithScore(score), nil
}

// ScoreBatch scores every snapshot independently. One failure never affects
// the others; results keep input order.
func (s *AnalysisService) ScoreBatch(ctx context.Context, snaps []core.FinancialSnapshot) ([]BatchItem, error) {
	out := make([]BatchItem, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range snaps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := BatchItem{Index: i}
			scored, err := s.ScoreSnapshot(gctx, snaps[i])
			if err != nil {
				item.err = err
				item.Error = err.Error()
			} else {
				item.Score = scored.StressScore
			}
			out[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summarize validates the transactions and returns the categorized spend of
// their most recent month.
func (s *AnalysisService) Summarize(ctx context.Context, txs []core.Transaction) (core.SpendSummary, error) {
	if err := validateTransactions(txs); err != nil {
		return core.SpendSummary{}, err
	}
	sum, err := core.Summarize(txs, s.classifier)
	if err != nil {
		return core.SpendSummary{}, err
	}
	s.logger.DebugContext(ctx, "Spend summarized",
		applog.FieldYear, sum.Year, applog.FieldMonth, sum.Month, "categories", len(sum.ByCategory))
	return sum, nil
}

func validateTransactions(txs []core.Transaction) error {
	verr := &core.ValidationError{}
	for i, t := range txs {
		if err := t.Validate(); err != nil {
			verr.Add(fmt.Sprintf("transactions[%d]", i), err.Error())
		}
	}
	return verr.ErrOrNil()
}
