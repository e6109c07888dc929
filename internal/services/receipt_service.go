package services

import (
	"context"
	"fmt"
	"strings"

	"finstress/internal/ai"
	"finstress/internal/core"
	applog "finstress/internal/log"
)

// ReceiptService reads a receipt image and resolves it to one purchase.
type ReceiptService struct {
	extractor  ai.TextExtractor
	structurer ai.Structurer
	logger     *applog.Logger
}

func NewReceiptService(extractor ai.TextExtractor, structurer ai.Structurer, logger *applog.Logger) *ReceiptService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReceiptService{
		extractor:  extractor,
		structurer: structurer,
		logger:     logger.WithComponent(applog.ComponentReceipt),
	}
}

type receiptOutput struct {
	Name  *string     `json:"name"`
	Price *core.Money `json:"price"`
}

// Parse sniffs the upload, extracts its text and structures it. Multiple
// products are collapsed by the model into one item with the total price.
func (s *ReceiptService) Parse(ctx context.Context, data []byte) (core.ReceiptItem, error) {
	img, err := ai.NewImage(data)
	if err != nil {
		return core.ReceiptItem{}, err
	}
	if s.extractor == nil || s.structurer == nil {
		return core.ReceiptItem{}, fmt.Errorf("parse receipt: no model configured: %w", core.ErrGeneration)
	}

	text, err := s.extractor.ExtractText(ctx, img)
	if err != nil {
		return core.ReceiptItem{}, fmt.Errorf("extract receipt text: %w", err)
	}
	raw, err := s.structurer.Structure(ctx, receiptPrompt(text), receiptSchema)
	if err != nil {
		return core.ReceiptItem{}, fmt.Errorf("structure receipt: %w", err)
	}

	var out receiptOutput
	if err := ai.DecodeSchema(raw, receiptSchema, &out); err != nil {
		return core.ReceiptItem{}, err
	}
	if out.Name == nil || out.Price == nil {
		return core.ReceiptItem{}, fmt.Errorf("model output missing name or price: %w", core.ErrGeneration)
	}

	item := core.ReceiptItem{Name: strings.TrimSpace(*out.Name), Price: *out.Price}
	if err := item.Validate(); err != nil {
		return core.ReceiptItem{}, err
	}
	s.logger.InfoContext(ctx, "Receipt parsed", applog.FieldOperation, applog.OpExtract, "price_cents", item.Price.Cents)
	return item, nil
}
