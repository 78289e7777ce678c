// Package mock provides a test double for the soundfx.Provider interface.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/podforge/podforge/pkg/audio"
)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	// Ctx is the context passed to Generate.
	Ctx context.Context
	// Prompt is the text prompt passed to Generate.
	Prompt string
	// Duration is the duration hint passed to Generate.
	Duration time.Duration
}

// Provider is a mock implementation of soundfx.Provider. Unless GenerateFunc
// is set, Generate returns silence of the requested duration.
type Provider struct {
	mu sync.Mutex

	// GenerateFunc, if non-nil, handles Generate calls entirely.
	GenerateFunc func(ctx context.Context, prompt string, duration time.Duration) (*audio.Clip, error)

	// GenerateErr, if non-nil, is returned by every Generate call.
	GenerateErr error

	// Format is the clip format for generated silence. Defaults to
	// 24000Hz mono.
	Format audio.Format

	// GenerateCalls records every call to Generate in order.
	GenerateCalls []GenerateCall
}

// Generate implements soundfx.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string, duration time.Duration) (*audio.Clip, error) {
	p.mu.Lock()
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Ctx: ctx, Prompt: prompt, Duration: duration})
	fn := p.GenerateFunc
	errOut := p.GenerateErr
	f := p.Format
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, duration)
	}
	if errOut != nil {
		return nil, errOut
	}

	if f.SampleRate == 0 {
		f = audio.Format{SampleRate: 24000, Channels: 1}
	}
	if duration <= 0 {
		duration = 3 * time.Second
	}
	return audio.Silence(duration, f), nil
}

// Prompts returns the prompts passed to Generate so far, in call order.
func (p *Provider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.GenerateCalls))
	for i, c := range p.GenerateCalls {
		out[i] = c.Prompt
	}
	return out
}
