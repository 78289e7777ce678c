// Package script implements the text side of the podcast pipeline: the
// outline planner, the section expander, and the sequential assembler that
// drives them.
//
// The planner turns an open-ended topic into a length-budgeted outline with
// one structured-generation call. The expander then writes each section's
// spoken transcript, with the full outline, the transcript written so far,
// and the remaining time budget as context. The assembler runs these stages
// strictly in order — each section's prompt depends on the complete output of
// all prior sections, so there is deliberately no parallelism here.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/podforge/podforge/internal/observe"
	"github.com/podforge/podforge/internal/resilience"
	"github.com/podforge/podforge/pkg/podcast"
	"github.com/podforge/podforge/pkg/provider/llm"
)

const (
	// MaxTopicChars bounds user-supplied topics.
	MaxTopicChars = 500

	// MaxTargetMinutes bounds the requested episode length.
	MaxTargetMinutes = 60

	defaultTemperature = 0.7

	// defaultContextTokens is the prompt budget for one section expansion.
	// Section prompts embed the full prior transcript, so long episodes can
	// outgrow the model window; the expander trims the oldest transcript
	// text to stay under this.
	defaultContextTokens = 16384
)

// PlanRequest carries the user's episode parameters.
type PlanRequest struct {
	// Topic is what the episode is about. Non-empty, at most MaxTopicChars.
	Topic string

	// TargetMinutes is the requested episode length in (0, MaxTargetMinutes].
	TargetMinutes int

	// Style is an optional episode format (e.g. "Interview", "Solo Host").
	Style string

	// Tone is an optional register (e.g. "Casual", "Formal").
	Tone string

	// KeyPoints optionally lists specific points to cover, one per line.
	KeyPoints string
}

// Validate checks the request's basic constraints. Violations are reported
// as *podcast.ValidationError before any external call is made.
func (r PlanRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return &podcast.ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(r.Topic); n > MaxTopicChars {
		return &podcast.ValidationError{
			Field:  "topic",
			Reason: fmt.Sprintf("too long (%d characters, max %d)", n, MaxTopicChars),
		}
	}
	if r.TargetMinutes <= 0 {
		return &podcast.ValidationError{Field: "target_minutes", Reason: "must be positive"}
	}
	if r.TargetMinutes > MaxTargetMinutes {
		return &podcast.ValidationError{
			Field:  "target_minutes",
			Reason: fmt.Sprintf("too long (%d minutes, max %d)", r.TargetMinutes, MaxTargetMinutes),
		}
	}
	return nil
}

// Option configures the script stages during construction.
type Option func(*options)

type options struct {
	retry         resilience.Policy
	temperature   float64
	contextTokens int
	metrics       *observe.Metrics
}

// WithRetryPolicy overrides the retry policy applied to every model call.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(o *options) {
		o.retry = p
	}
}

// WithTemperature overrides the sampling temperature. Default: 0.7.
func WithTemperature(t float64) Option {
	return func(o *options) {
		o.temperature = t
	}
}

// WithContextTokens overrides the prompt token budget used when trimming
// transcript context from section prompts. Default: 16384.
func WithContextTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.contextTokens = n
		}
	}
}

// WithMetrics records stage latencies and counters on m instead of the
// package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{
		temperature:   defaultTemperature,
		contextTokens: defaultContextTokens,
		metrics:       observe.Default(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Planner produces an outline from a topic with one structured-generation
// call. Safe for concurrent use.
type Planner struct {
	llm  llm.Provider
	opts options
}

// NewPlanner returns a Planner backed by the given provider.
func NewPlanner(provider llm.Provider, opts ...Option) *Planner {
	return &Planner{llm: provider, opts: buildOptions(opts)}
}

// Plan asks the model for a length-budgeted outline. The section durations
// are the model's loose estimates and need not sum to the target — the
// expander is given remaining-budget context later to correct pacing.
//
// Fails with *podcast.GenerationError once the retry budget is exhausted.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*podcast.Outline, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var outline *podcast.Outline
	err := p.opts.retry.Do(ctx, "plan outline", func(ctx context.Context) error {
		resp, err := p.llm.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: outlineSystemPrompt,
			Temperature:  p.opts.temperature,
			Messages: []llm.Message{
				{Role: "user", Content: buildOutlinePrompt(req)},
			},
		})
		if err != nil {
			return fmt.Errorf("script: plan: %w", err)
		}
		outline, err = parseOutline(resp.Content)
		return err
	})
	p.opts.metrics.RecordOutline(ctx, time.Since(start), err)
	if err != nil {
		return nil, &podcast.GenerationError{Stage: podcast.StageOutline, Section: -1, Err: err}
	}

	slog.Info("outline planned",
		"title", outline.Title,
		"sections", len(outline.Sections),
		"target_minutes", req.TargetMinutes,
	)
	return outline, nil
}

// Expander writes one section's transcript at a time. Safe for concurrent
// use, though the assembler always calls it sequentially.
type Expander struct {
	llm  llm.Provider
	opts options
}

// NewExpander returns an Expander backed by the given provider.
func NewExpander(provider llm.Provider, opts ...Option) *Expander {
	return &Expander{llm: provider, opts: buildOptions(opts)}
}

// Expand produces the spoken text for one outline section. index is the
// zero-based position of spec in outline.Sections, used for error context.
//
// The returned section's EstimatedSeconds is the model's own reading-time
// estimate for the text it produced, which is what the assembler accumulates
// — not the outline's original estimate.
func (e *Expander) Expand(
	ctx context.Context,
	outline *podcast.Outline,
	index int,
	transcriptSoFar string,
	elapsedMinutes float64,
	targetMinutes int,
) (*podcast.Section, error) {
	if index < 0 || index >= len(outline.Sections) {
		return nil, &podcast.GenerationError{
			Stage:   podcast.StageSection,
			Section: index,
			Err:     fmt.Errorf("script: section index %d out of range [0,%d)", index, len(outline.Sections)),
		}
	}
	spec := outline.Sections[index]
	transcriptSoFar = e.fitContext(outline, spec, transcriptSoFar, elapsedMinutes, targetMinutes)

	start := time.Now()
	var section *podcast.Section
	err := e.opts.retry.Do(ctx, fmt.Sprintf("expand section %d", index+1), func(ctx context.Context) error {
		resp, err := e.llm.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: sectionSystemPrompt,
			Temperature:  e.opts.temperature,
			Messages: []llm.Message{
				{Role: "user", Content: buildSectionPrompt(outline, spec, transcriptSoFar, elapsedMinutes, targetMinutes)},
			},
		})
		if err != nil {
			return fmt.Errorf("script: expand: %w", err)
		}
		section, err = parseSection(resp.Content)
		return err
	})
	e.opts.metrics.RecordSection(ctx, time.Since(start), err)
	if err != nil {
		return nil, &podcast.GenerationError{Stage: podcast.StageSection, Section: index, Err: err}
	}

	return section, nil
}

// fitContext trims the running transcript until the section prompt fits the
// configured token budget, dropping the oldest text first so the model keeps
// the most recent dialogue for continuity. Counting errors leave the
// transcript untrimmed; the model call itself will surface a real overflow.
func (e *Expander) fitContext(
	outline *podcast.Outline,
	spec podcast.OutlineSection,
	transcript string,
	elapsedMinutes float64,
	targetMinutes int,
) string {
	trimmed := false
	for {
		tokens, err := e.llm.CountTokens([]llm.Message{
			{Role: "system", Content: sectionSystemPrompt},
			{Role: "user", Content: buildSectionPrompt(outline, spec, transcript, elapsedMinutes, targetMinutes)},
		})
		if err != nil || tokens <= e.opts.contextTokens {
			break
		}
		if len(transcript) < 2 {
			break
		}
		// Drop the oldest half, cutting on a line boundary when possible.
		cut := len(transcript) / 2
		if idx := strings.IndexByte(transcript[cut:], '\n'); idx >= 0 {
			cut += idx + 1
		}
		transcript = transcript[cut:]
		trimmed = true
	}
	if trimmed {
		slog.Debug("transcript context trimmed to fit token budget",
			"section", spec.Description,
			"budget_tokens", e.opts.contextTokens,
		)
	}
	return transcript
}

// ProgressFunc is invoked by the assembler after each section completes.
// done counts completed sections out of total.
type ProgressFunc func(done, total int)

// Assembler drives the planner and expander to produce the full script.
type Assembler struct {
	planner  *Planner
	expander *Expander
}

// NewAssembler wires an Assembler from a single LLM provider.
func NewAssembler(provider llm.Provider, opts ...Option) *Assembler {
	return &Assembler{
		planner:  NewPlanner(provider, opts...),
		expander: NewExpander(provider, opts...),
	}
}

// Assemble plans the outline and expands every section in outline order,
// strictly sequentially: each expansion's prompt embeds the complete prior
// transcript and the remaining budget, both of which exist only after the
// preceding section completes. This trades latency for narrative continuity
// and pacing accuracy.
//
// If any stage fails permanently, the partial script is discarded and the
// stage's typed error is returned; no partial Podcast is ever produced.
// progress may be nil.
func (a *Assembler) Assemble(ctx context.Context, req PlanRequest, progress ProgressFunc) (*podcast.Podcast, error) {
	outline, err := a.planner.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	pod := &podcast.Podcast{
		Title:           outline.Title,
		Description:     outline.Description,
		OutlineSections: outline.Sections,
	}

	total := len(outline.Sections)
	for i := range outline.Sections {
		section, err := a.expander.Expand(ctx, outline, i, pod.Transcript, pod.ElapsedMinutes, req.TargetMinutes)
		if err != nil {
			return nil, err
		}
		pod.AppendSection(*section)

		slog.Debug("section expanded",
			"section", i+1,
			"of", total,
			"estimated_seconds", section.EstimatedSeconds,
			"elapsed_minutes", pod.ElapsedMinutes,
		)
		if progress != nil {
			progress(i+1, total)
		}
	}

	slog.Info("script assembled",
		"title", pod.Title,
		"sections", len(pod.Sections),
		"elapsed_minutes", pod.ElapsedMinutes,
	)
	return pod, nil
}
