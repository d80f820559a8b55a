package sentiment

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pscheid92/feedback-pulse/internal/domain"
)

type class int

const (
	classNegative class = iota
	classNeutral
	classPositive
)

var labelClasses = map[string]class{
	"LABEL_0": classNegative,
	"LABEL_1": classNeutral,
	"LABEL_2": classPositive,
}

// BatchShape names the shape an inference deployment returns its batch in.
type BatchShape string

const (
	// BatchShapeFlat is a single array of label/score objects.
	BatchShapeFlat BatchShape = "flat"
	// BatchShapeNested wraps that array in an outer array; only the first inner batch is read.
	BatchShapeNested BatchShape = "nested"
)

// ParseBatchShape validates a configured shape name. Anything other than
// "flat" or "nested" is an error.
func ParseBatchShape(s string) (BatchShape, error) {
	switch BatchShape(s) {
	case BatchShapeFlat, BatchShapeNested:
		return BatchShape(s), nil
	default:
		return "", fmt.Errorf("unknown batch shape %q (want %q or %q)", s, BatchShapeFlat, BatchShapeNested)
	}
}

// Normalize maps a flat batch of classifications onto Scores.
//
// Unrecognized labels are skipped, and a repeated label overwrites the earlier
// score (last one wins). Both behaviors are relied upon by existing clients;
// do not turn them into errors or sums.
func Normalize(payload json.RawMessage) (domain.Scores, error) {
	if !isArray(payload) {
		return domain.Scores{}, malformed("expected a flat array of classifications", payload)
	}

	var batch []domain.Classification
	if err := json.Unmarshal(payload, &batch); err != nil {
		return domain.Scores{}, malformed("batch entries must be {label, score} objects", payload)
	}

	var scores domain.Scores
	for _, item := range batch {
		c, ok := labelClasses[item.Label]
		if !ok {
			continue
		}
		switch c {
		case classNegative:
			scores.Negative = item.Score
		case classNeutral:
			scores.Neutral = item.Score
		case classPositive:
			scores.Positive = item.Score
		}
	}
	return scores, nil
}

// UnwrapBatch returns the first inner batch of an array-of-arrays payload.
func UnwrapBatch(payload json.RawMessage) (json.RawMessage, error) {
	var outer []json.RawMessage
	if !isArray(payload) || json.Unmarshal(payload, &outer) != nil {
		return nil, malformed("expected an array of batches", payload)
	}
	if len(outer) == 0 || !isArray(outer[0]) {
		return nil, malformed("expected the first element to be a batch", payload)
	}
	return outer[0], nil
}

// Decode unwraps payload according to shape and normalizes the result.
func Decode(shape BatchShape, payload json.RawMessage) (domain.Scores, error) {
	batch := payload
	if shape == BatchShapeNested {
		var err error
		if batch, err = UnwrapBatch(payload); err != nil {
			return domain.Scores{}, err
		}
	}
	return Normalize(batch)
}

func isArray(payload []byte) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func malformed(reason string, payload []byte) *domain.MalformedResponseError {
	return &domain.MalformedResponseError{
		Reason:  reason,
		Payload: append([]byte(nil), payload...),
	}
}
