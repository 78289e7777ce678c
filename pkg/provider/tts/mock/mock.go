// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to feed controlled clips to consumers and to verify the text
// and voices passed to the TTS backend.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/podforge/podforge/pkg/audio"
	"github.com/podforge/podforge/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the text passed to Synthesize.
	Text string
	// Voice is the VoiceProfile passed to Synthesize.
	Voice tts.VoiceProfile
}

// Provider is a mock implementation of tts.Provider. Unless SynthesizeFunc
// is set, every Synthesize call produces one second of silence per 150
// characters of input (a rough spoken-pace stand-in), so duration-dependent
// assertions have something proportional to work with.
type Provider struct {
	mu sync.Mutex

	// --- Configurable behaviour ---

	// SynthesizeFunc, if non-nil, handles Synthesize calls entirely.
	SynthesizeFunc func(ctx context.Context, text string, voice tts.VoiceProfile) (*audio.Clip, error)

	// SynthesizeErr, if non-nil, is returned by every Synthesize call.
	SynthesizeErr error

	// Format is the clip format for generated silence. Defaults to
	// 24000Hz mono.
	Format audio.Format

	// MaxLen is returned by MaxTextLen. Defaults to 5000.
	MaxLen int

	// ListVoicesResult is returned by ListVoices.
	ListVoicesResult []tts.VoiceProfile

	// ListVoicesErr, if non-nil, is returned by ListVoices.
	ListVoicesErr error

	// --- Call records ---

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) (*audio.Clip, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Voice: voice})
	fn := p.SynthesizeFunc
	errOut := p.SynthesizeErr
	f := p.Format
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, voice)
	}
	if errOut != nil {
		return nil, errOut
	}

	if f.SampleRate == 0 {
		f = audio.Format{SampleRate: 24000, Channels: 1}
	}
	d := time.Duration(len(text)) * time.Second / 150
	if d <= 0 {
		d = 10 * time.Millisecond
	}
	return audio.Silence(d, f), nil
}

// MaxTextLen implements tts.Provider.
func (p *Provider) MaxTextLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.MaxLen > 0 {
		return p.MaxLen
	}
	return 5000
}

// ListVoices implements tts.Provider.
func (p *Provider) ListVoices(ctx context.Context) ([]tts.VoiceProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ListVoicesErr != nil {
		return nil, p.ListVoicesErr
	}
	return p.ListVoicesResult, nil
}

// Texts returns the texts passed to Synthesize so far, in call order.
func (p *Provider) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.SynthesizeCalls))
	for i, c := range p.SynthesizeCalls {
		out[i] = c.Text
	}
	return out
}
