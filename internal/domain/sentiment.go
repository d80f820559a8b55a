package domain

import (
	"context"
	"encoding/json"
)

// Classification is one entry of an inference batch.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Scores is the canonical three-bucket sentiment record. The three values are
// expected to sum to 1 but nothing enforces it.
type Scores struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// InferenceClient sends text to the classification endpoint and returns its raw JSON body.
type InferenceClient interface {
	Classify(ctx context.Context, text string) (json.RawMessage, error)
}

// GenerativeClient turns a prompt into generated text.
type GenerativeClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
