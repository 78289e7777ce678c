// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs) and
// presents a uniform interface: text plus a voice in, a decoded audio clip
// out. Provider request-size limits are not handled here — the synthesis
// stage chunks long text before calling Synthesize.
//
// Implementations must be safe for concurrent use; the synthesis stage issues
// batched concurrent requests against a single Provider instance.
package tts

import (
	"context"

	"github.com/podforge/podforge/pkg/audio"
)

// VoiceProfile describes a synthesis voice.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which TTS backend this voice belongs to.
	Provider string

	// Metadata holds provider-specific voice attributes (gender, age,
	// accent, etc.).
	Metadata map[string]string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts text into speech audio using the given voice and
	// returns the decoded clip. text must not exceed the provider's request
	// limit (see MaxTextLen); the caller is responsible for chunking.
	//
	// Throttling is signalled by returning an error chain containing
	// *podcast.RateLimitError so callers can back off for longer.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) (*audio.Clip, error)

	// MaxTextLen returns the maximum text length in characters accepted by
	// a single Synthesize call.
	MaxTextLen() int

	// ListVoices returns all voice profiles available from this provider.
	// The list reflects the provider's current catalogue and may change
	// between calls.
	ListVoices(ctx context.Context) ([]VoiceProfile, error)
}
