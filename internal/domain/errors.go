package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrUpstream          = errors.New("upstream request failed")
	ErrNoCandidates      = errors.New("no candidates returned")
	ErrInvalidFeedback   = errors.New("invalid feedback")
)

// MalformedResponseError reports a collaborator payload with an unexpected shape.
// Payload is the raw body as received, kept for diagnostic logging.
type MalformedResponseError struct {
	Service string
	Reason  string
	Payload []byte
}

func (e *MalformedResponseError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("malformed response: %s", e.Reason)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.Service, e.Reason)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// UpstreamError reports a non-success status or a non-JSON body from a collaborator.
type UpstreamError struct {
	Service     string
	StatusCode  int
	ContentType string
	Body        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d (%s)", e.Service, e.StatusCode, e.ContentType)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
