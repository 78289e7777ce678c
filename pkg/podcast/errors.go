package podcast

import (
	"errors"
	"fmt"
	"time"
)

// Stage names a pipeline stage for error reporting and progress display.
type Stage string

const (
	StageOutline  Stage = "outline"
	StageSection  Stage = "section"
	StageSpeech   Stage = "speech"
	StageEffects  Stage = "effects"
	StageTimeline Stage = "timeline"
)

// GenerationError reports that the text-generation service failed or returned
// an invalid structured result after retry exhaustion. Section is the
// zero-based section index, or -1 when the failure is not section-scoped.
type GenerationError struct {
	Stage   Stage
	Section int
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Section >= 0 {
		return fmt.Sprintf("generation failed at %s %d: %v", e.Stage, e.Section+1, e.Err)
	}
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AudioError reports that speech or effect synthesis, or audio encoding,
// failed after retry exhaustion. Section is the zero-based section index, or
// -1 when the failure is not section-scoped.
type AudioError struct {
	Stage   Stage
	Section int
	Err     error
}

func (e *AudioError) Error() string {
	if e.Section >= 0 {
		return fmt.Sprintf("audio failed at %s %d: %v", e.Stage, e.Section+1, e.Err)
	}
	return fmt.Sprintf("audio failed at %s: %v", e.Stage, e.Err)
}

func (e *AudioError) Unwrap() error { return e.Err }

// RateLimitError signals that an external service is throttling requests.
// Callers should apply a longer backoff or tell the user to try again
// shortly, as opposed to treating the service as broken.
type RateLimitError struct {
	// RetryAfter is the provider's suggested wait, zero when unknown.
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ValidationError reports invalid user input, detected before any external
// call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsRateLimited reports whether err carries a RateLimitError anywhere in its
// chain.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
