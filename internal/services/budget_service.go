package services

import (
	"context"
	"fmt"
	"strings"

	"finstress/internal/ai"
	"finstress/internal/core"
	applog "finstress/internal/log"
	ports "finstress/internal/sheets"
)

// BudgetService turns free text or structured payloads into stored budgets.
type BudgetService struct {
	structurer ai.Structurer
	store      ports.BudgetStore
	exporter   ports.BudgetExporter
	logger     *applog.Logger
}

// NewBudgetService wires the service. structurer and exporter may be nil:
// text input is then rejected and export is skipped.
func NewBudgetService(structurer ai.Structurer, store ports.BudgetStore, exporter ports.BudgetExporter, logger *applog.Logger) *BudgetService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &BudgetService{
		structurer: structurer,
		store:      store,
		exporter:   exporter,
		logger:     logger.WithComponent(applog.ComponentBudget),
	}
}

// FromDescription asks the model to structure description, then normalizes
// and stores the result. Output missing a required field is a generation
// failure; output with negative amounts is a validation failure.
func (s *BudgetService) FromDescription(ctx context.Context, description string) (core.BudgetRecord, error) {
	if strings.TrimSpace(description) == "" {
		verr := &core.ValidationError{}
		verr.Add("description", "is required")
		return core.BudgetRecord{}, verr
	}
	if s.structurer == nil {
		return core.BudgetRecord{}, fmt.Errorf("budget from text: no model configured: %w", core.ErrGeneration)
	}

	raw, err := s.structurer.Structure(ctx, budgetPrompt(description), budgetSchema)
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("structure budget: %w", err)
	}
	var p core.BudgetPayload
	if err := ai.DecodeSchema(raw, budgetSchema, &p); err != nil {
		return core.BudgetRecord{}, err
	}
	if missing := missingBudgetFields(p); len(missing) > 0 {
		return core.BudgetRecord{}, fmt.Errorf("model output missing %s: %w", strings.Join(missing, ", "), core.ErrGeneration)
	}
	return s.FromPayload(ctx, p)
}

// FromPayload normalizes and stores a caller-supplied payload.
func (s *BudgetService) FromPayload(ctx context.Context, p core.BudgetPayload) (core.BudgetRecord, error) {
	b, err := core.NormalizeBudget(p)
	if err != nil {
		return core.BudgetRecord{}, err
	}
	rec, err := s.store.SaveBudget(ctx, b)
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("save budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget normalized",
		applog.FieldOperation, applog.OpNormalize,
		applog.FieldBudgetID, rec.ID,
		"categories", len(b.Expenses))

	if s.exporter != nil {
		if err := s.exporter.ExportBudget(ctx, rec); err != nil {
			// the budget is stored; export is best effort
			s.logger.ErrorContext(ctx, "Budget export failed",
				applog.NewFields().WithOperation(applog.OpExport).WithError(err).ToSlice()...)
		}
	}
	return rec, nil
}

func (s *BudgetService) Get(ctx context.Context, id string) (core.BudgetRecord, error) {
	return s.store.GetBudget(ctx, id)
}

func missingBudgetFields(p core.BudgetPayload) []string {
	var missing []string
	if p.Income == nil {
		missing = append(missing, "income")
	}
	if p.Savings == nil {
		missing = append(missing, "savings")
	}
	if p.Expenses == nil {
		missing = append(missing, "expenses")
	}
	for i, e := range p.Expenses {
		if strings.TrimSpace(e.Category) == "" {
			missing = append(missing, fmt.Sprintf("expenses[%d].category", i))
		}
		if e.AllocatedAmount == nil {
			missing = append(missing, fmt.Sprintf("expenses[%d].allocated_amount", i))
		}
	}
	return missing
}
