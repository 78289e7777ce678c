// Package soundfx defines the Provider interface for sound-effect and music
// generation backends.
//
// A soundfx provider wraps a generative audio service (e.g., MusicGen hosted
// on Replicate): a text prompt and a target duration in, a decoded clip out.
// Effect generation is always an optional path — callers treat failures as
// "no effect available" rather than aborting the pipeline.
package soundfx

import (
	"context"
	"time"

	"github.com/podforge/podforge/pkg/audio"
)

// Provider is the abstraction over any sound/music generation backend.
//
// Implementations must be safe for concurrent use; effect clips for multiple
// sections are generated concurrently.
type Provider interface {
	// Generate produces a short audio clip matching the text prompt.
	// duration is a hint; the returned clip may be shorter or longer.
	//
	// Throttling is signalled by returning an error chain containing
	// *podcast.RateLimitError.
	Generate(ctx context.Context, prompt string, duration time.Duration) (*audio.Clip, error)
}
