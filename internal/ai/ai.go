// Package ai wraps the generative model behind two narrow collaborator
// contracts: turning an image into text, and turning a prompt into JSON that
// matches a response schema.
package ai

import (
	"context"

	"google.golang.org/genai"
)

// Prompt is a system instruction plus the user content it applies to.
type Prompt struct {
	System string
	User   string
}

// TextExtractor returns the text visible in an image. It fails with
// core.ErrUnreadableImage when nothing can be read.
type TextExtractor interface {
	ExtractText(ctx context.Context, img Image) (string, error)
}

// Structurer returns raw JSON shaped by schema. It fails with
// core.ErrGeneration when the model output is empty or not JSON.
type Structurer interface {
	Structure(ctx context.Context, p Prompt, schema *genai.Schema) ([]byte, error)
}
