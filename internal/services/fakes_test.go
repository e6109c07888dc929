package services

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/genai"

	"finstress/internal/ai"
	"finstress/internal/core"
)

// scriptedStructurer returns canned JSON per schema.
type scriptedStructurer struct {
	mu      sync.Mutex
	out     map[*genai.Schema]string
	err     error
	prompts []ai.Prompt
}

func (s *scriptedStructurer) Structure(_ context.Context, p ai.Prompt, schema *genai.Schema) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return nil, s.err
	}
	out, ok := s.out[schema]
	if !ok {
		return nil, errors.New("unexpected schema")
	}
	return []byte(out), nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText(context.Context, ai.Image) (string, error) {
	return f.text, f.err
}

type fakeExporter struct {
	mu       sync.Mutex
	exported []core.BudgetRecord
	err      error
}

func (f *fakeExporter) ExportBudget(_ context.Context, rec core.BudgetRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exported = append(f.exported, rec)
	return f.err
}

type fakePublisher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakePublisher) PublishRecommendationRequest(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return f.err
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
