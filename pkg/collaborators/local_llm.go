package collaborators

import (
	"context"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// LocalLLM is a deterministic, offline stand-in for a real language-model
// provider: it returns the content itself as the summary, truncated to
// 280 characters (MaxTokens is not consulted), annotated with the real
// token count of the full content, so callers exercise the same
// token-accounting path a production provider would use. It never
// sets FallbackUsed — a real multi-provider client would set that when
// it degrades to a secondary model.
type LocalLLM struct {
	encoding *tiktoken.Tiktoken
	model    string
}

// NewLocalLLM constructs a stub bound to model's encoding (falls back to
// cl100k_base if the model name is unrecognized).
func NewLocalLLM(model string) (*LocalLLM, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("collaborators: load token encoding: %w", err)
		}
	}
	return &LocalLLM{encoding: enc, model: model}, nil
}

func (l *LocalLLM) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	start := time.Now()
	tokens := l.encoding.Encode(req.Content, nil, nil)

	summary := req.Content
	if len(summary) > 280 {
		summary = summary[:280] + "..."
	}

	return CompletionResult{
		Summary:          summary,
		ModelUsed:        l.model,
		Provider:         "local-stub",
		TokenCount:       len(tokens),
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		FallbackUsed:     false,
	}, nil
}
