// Package timeline composes synthesized speech with intro, outro, transition
// and per-section effect clips into one final audio artifact.
//
// Two compositing strategies exist. Sequential insertion is canonical: effect
// and transition clips are concatenated in-line between speech clips. Overlay
// instead mixes effect clips on top of the continuous speech track at evenly
// spaced timestamps. A plan uses exactly one strategy — the two are never
// combined for the same artifact.
package timeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/podforge/podforge/internal/observe"
	"github.com/podforge/podforge/pkg/audio"
	"github.com/podforge/podforge/pkg/podcast"
)

// Strategy selects how effect clips are composited.
type Strategy string

const (
	// StrategySequential concatenates effect and transition clips in-line
	// between speech clips.
	StrategySequential Strategy = "sequential"

	// StrategyOverlay mixes effect clips on top of the speech track at
	// evenly spaced positions.
	StrategyOverlay Strategy = "overlay"
)

// IsValid reports whether s is a recognised strategy.
func (s Strategy) IsValid() bool {
	return s == StrategySequential || s == StrategyOverlay
}

// SectionAudio pairs one section's speech with its optional effect clip.
// A nil Effect means "no effect for this section" and is skipped silently.
type SectionAudio struct {
	Speech *audio.Clip
	Effect *audio.Clip
}

// Plan is the ordered composition plan consumed once to produce the final
// artifact. Any of Intro, Transition, and Outro may be nil; absence is never
// an error.
type Plan struct {
	Intro      *audio.Clip
	Transition *audio.Clip
	Outro      *audio.Clip

	// Sections holds speech and effect clips in playback order,
	// index-aligned with the script's sections.
	Sections []SectionAudio

	Strategy Strategy
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithFormat sets the output format. Default: 44100Hz mono.
func WithFormat(f audio.Format) Option {
	return func(a *Assembler) {
		a.format = f
	}
}

// WithMasterFade sets the fade-in applied at the absolute start and the
// fade-out at the absolute end of the composed artifact. Default: 1s.
func WithMasterFade(d time.Duration) Option {
	return func(a *Assembler) {
		if d >= 0 {
			a.masterFade = d
		}
	}
}

// WithMetrics records render latency on m instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *Assembler) {
		a.metrics = m
	}
}

// Assembler renders composition plans into encoded audio.
type Assembler struct {
	format     audio.Format
	masterFade time.Duration
	metrics    *observe.Metrics
}

// New returns an Assembler with the given options.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		format:     audio.Format{SampleRate: 44100, Channels: 1},
		masterFade: time.Second,
		metrics:    observe.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Render composes the plan into a single clip in the assembler's output
// format and applies the master fades. Every input clip is converted to the
// output format first, so heterogeneous provider formats mix cleanly.
func (a *Assembler) Render(ctx context.Context, plan Plan) (*audio.Clip, error) {
	start := time.Now()
	clip, err := a.render(plan)
	a.metrics.RecordRender(ctx, time.Since(start), err)
	if err != nil {
		return nil, &podcast.AudioError{Stage: podcast.StageTimeline, Section: -1, Err: err}
	}
	return clip, nil
}

func (a *Assembler) render(plan Plan) (*audio.Clip, error) {
	strategy := plan.Strategy
	if strategy == "" {
		strategy = StrategySequential
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("timeline: unknown strategy %q", strategy)
	}

	var composed *audio.Clip
	var err error
	switch strategy {
	case StrategySequential:
		composed, err = a.renderSequential(plan)
	case StrategyOverlay:
		composed, err = a.renderOverlay(plan)
	}
	if err != nil {
		return nil, err
	}

	if composed.Empty() {
		return nil, fmt.Errorf("timeline: plan produced no audio")
	}

	composed = audio.FadeIn(composed, a.masterFade)
	composed = audio.FadeOut(composed, a.masterFade)
	return composed, nil
}

// renderSequential concatenates intro, per-section effect+speech pairs with
// transitions between sections, and outro.
func (a *Assembler) renderSequential(plan Plan) (*audio.Clip, error) {
	var parts []*audio.Clip
	parts = append(parts, a.convert(plan.Intro))

	for i, sec := range plan.Sections {
		if i > 0 {
			parts = append(parts, a.convert(plan.Transition))
		}
		parts = append(parts, a.convert(sec.Effect))
		parts = append(parts, a.convert(sec.Speech))
	}

	parts = append(parts, a.convert(plan.Outro))
	return audio.Concat(parts...)
}

// renderOverlay concatenates intro, speech, transitions, and outro, then
// mixes each present effect clip on top at evenly spaced positions across
// the speech span.
func (a *Assembler) renderOverlay(plan Plan) (*audio.Clip, error) {
	var parts []*audio.Clip
	intro := a.convert(plan.Intro)
	parts = append(parts, intro)

	for i, sec := range plan.Sections {
		if i > 0 {
			parts = append(parts, a.convert(plan.Transition))
		}
		parts = append(parts, a.convert(sec.Speech))
	}

	parts = append(parts, a.convert(plan.Outro))
	base, err := audio.Concat(parts...)
	if err != nil {
		return nil, err
	}

	var effects []*audio.Clip
	for _, sec := range plan.Sections {
		if !sec.Effect.Empty() {
			effects = append(effects, a.convert(sec.Effect))
		}
	}
	if len(effects) == 0 {
		return base, nil
	}

	// Spread effects evenly across the artifact, offset past the intro.
	span := base.Duration() - intro.Duration()
	step := span / time.Duration(len(effects)+1)
	for i, effect := range effects {
		offset := intro.Duration() + step*time.Duration(i+1)
		base, err = audio.Overlay(base, effect, offset)
		if err != nil {
			return nil, err
		}
	}
	return base, nil
}

// convert normalises a clip to the output format. Nil and empty clips pass
// through unchanged; Concat skips them.
func (a *Assembler) convert(c *audio.Clip) *audio.Clip {
	if c.Empty() {
		return nil
	}
	return audio.Convert(c, a.format)
}

// Encode renders the plan and serialises it into the final WAV byte stream.
func (a *Assembler) Encode(ctx context.Context, plan Plan) ([]byte, error) {
	clip, err := a.Render(ctx, plan)
	if err != nil {
		return nil, err
	}
	b, err := audio.EncodeWAV(clip)
	if err != nil {
		return nil, &podcast.AudioError{Stage: podcast.StageTimeline, Section: -1, Err: err}
	}
	return b, nil
}

// WriteFile encodes the plan and writes the bytes to path, returning the
// same bytes.
func (a *Assembler) WriteFile(ctx context.Context, plan Plan, path string) ([]byte, error) {
	b, err := a.Encode(ctx, plan)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return nil, &podcast.AudioError{Stage: podcast.StageTimeline, Section: -1, Err: fmt.Errorf("timeline: write %q: %w", path, err)}
	}
	return b, nil
}
