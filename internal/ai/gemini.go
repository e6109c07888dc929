package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"finstress/internal/core"
	applog "finstress/internal/log"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTemperature = float32(0.7)
)

const extractInstruction = "Transcribe every piece of text printed on this receipt image. " +
	"Keep the original line order. Output plain text only. " +
	"If the image contains no readable text, output nothing."

// contentGenerator is the subset of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiClient implements TextExtractor and Structurer on one model handle.
// It is constructed explicitly and passed to whoever needs it.
type GeminiClient struct {
	models      contentGenerator
	model       string
	temperature float32
	logger      *applog.Logger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *applog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newGeminiClient(client.Models, cfg, logger), nil
}

func newGeminiClient(models contentGenerator, cfg GeminiConfig, logger *applog.Logger) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &GeminiClient{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.WithComponent(applog.ComponentAI),
	}
}

func (g *GeminiClient) ExtractText(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 || !supportedMIME[img.MIMEType] {
		return "", fmt.Errorf("gemini: %w", core.ErrUnreadableImage)
	}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: extractInstruction},
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
		},
	}}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: extract text: %v: %w", err, core.ErrGeneration)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: no text found in image: %w", core.ErrUnreadableImage)
	}
	g.logger.DebugContext(ctx, "Extracted receipt text", applog.FieldOperation, applog.OpExtract, "chars", len(text))
	return text, nil
}

func (g *GeminiClient) Structure(ctx context.Context, p Prompt, schema *genai.Schema) ([]byte, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if p.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: p.System}}}
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: p.User}},
	}}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %v: %w", err, core.ErrGeneration)
	}
	raw := resp.Text()
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("gemini: empty response: %w", core.ErrGeneration)
	}

	clean := cleanModelJSON(raw)
	if !json.Valid([]byte(clean)) {
		g.logger.WarnContext(ctx, "Model returned malformed JSON", applog.FieldOperation, applog.OpStructure, applog.FieldModel, g.model)
		return nil, fmt.Errorf("gemini: malformed JSON response: %w", core.ErrGeneration)
	}
	return []byte(clean), nil
}
