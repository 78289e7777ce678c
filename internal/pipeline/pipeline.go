// Package pipeline orchestrates the full episode generation flow: script
// assembly, speaker segmentation, speech synthesis, sound effect generation,
// and timeline rendering.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/podforge/podforge/internal/observe"
	"github.com/podforge/podforge/internal/script"
	"github.com/podforge/podforge/internal/segment"
	"github.com/podforge/podforge/internal/synth"
	"github.com/podforge/podforge/internal/timeline"
	"github.com/podforge/podforge/pkg/audio"
	"github.com/podforge/podforge/pkg/podcast"
	"github.com/podforge/podforge/pkg/provider/soundfx"
	"github.com/podforge/podforge/pkg/provider/tts"
)

const (
	// defaultEffectDuration is the duration hint passed to the sound
	// generator for every effect clip.
	defaultEffectDuration = 3 * time.Second

	effectFadeIn  = time.Second
	effectFadeOut = 2 * time.Second
)

// Request describes one episode to generate.
type Request struct {
	// Topic is the episode subject. Required; at most 500 characters.
	Topic string

	// TargetMinutes is the desired episode length. Required; positive.
	TargetMinutes int

	// Style optionally describes the production style.
	Style string

	// Tone optionally sets the conversational tone.
	Tone string

	// KeyPoints optionally lists points the episode must cover.
	KeyPoints []string

	// AddEffects enables per-section sound effects.
	AddEffects bool

	// IntroOutro enables the generated intro, transition, and outro clips.
	// Ignored when AddEffects is false.
	IntroOutro bool
}

// Result is the finished episode.
type Result struct {
	// Script is the full generated script artifact.
	Script *podcast.Podcast

	// Audio is the rendered episode as a WAV byte stream.
	Audio []byte

	// Duration is the playback length of the rendered audio.
	Duration time.Duration
}

// ProgressFunc receives coarse progress updates: a human-readable stage
// label and a completion percentage in [0, 100] for the whole run.
type ProgressFunc func(stage string, percent int)

// Option configures a Generator.
type Option func(*Generator)

// WithEffects supplies the sound generation backend. Without it, effect
// requests are silently skipped.
func WithEffects(p soundfx.Provider) Option {
	return func(g *Generator) {
		g.effects = p
	}
}

// WithVoices sets the voice used for each speaker role. Roles without an
// entry fall back to the host voice.
func WithVoices(voices map[podcast.Role]tts.VoiceProfile) Option {
	return func(g *Generator) {
		g.voices = voices
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(g *Generator) {
		g.progress = fn
	}
}

// WithMetrics records stage latency on m instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// Generator runs the generation pipeline end to end.
type Generator struct {
	scripter    *script.Assembler
	splitter    *segment.Splitter
	synthesizer *synth.Synthesizer
	renderer    *timeline.Assembler
	effects     soundfx.Provider
	voices      map[podcast.Role]tts.VoiceProfile
	strategy    timeline.Strategy
	progress    ProgressFunc
	metrics     *observe.Metrics
}

// New wires a Generator from its stage components. scripter, splitter,
// synthesizer, and renderer are required.
func New(
	scripter *script.Assembler,
	splitter *segment.Splitter,
	synthesizer *synth.Synthesizer,
	renderer *timeline.Assembler,
	opts ...Option,
) *Generator {
	g := &Generator{
		scripter:    scripter,
		splitter:    splitter,
		synthesizer: synthesizer,
		renderer:    renderer,
		strategy:    timeline.StrategySequential,
		metrics:     observe.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// WithStrategy selects the effect compositing strategy.
func WithStrategy(s timeline.Strategy) Option {
	return func(g *Generator) {
		if s != "" {
			g.strategy = s
		}
	}
}

// Generate runs the full pipeline for one episode. The script stage runs
// strictly sequentially; speech synthesis and effect generation then run
// concurrently with each other. Effect failures degrade gracefully to an
// episode without that effect; any script or speech failure aborts the run
// with a typed error.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	g.report("script", 0)
	pod, err := g.assembleScript(ctx, req)
	if err != nil {
		return nil, err
	}

	sections := g.splitSections(pod)

	g.report("speech", 40)
	plan := timeline.Plan{
		Strategy: g.strategy,
		Sections: make([]timeline.SectionAudio, len(sections)),
	}

	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		clips, err := g.synthesizeSections(ectx, sections)
		if err != nil {
			return err
		}
		for i, clip := range clips {
			plan.Sections[i].Speech = clip
		}
		return nil
	})
	eg.Go(func() error {
		g.generateEffects(ectx, req, pod, &plan)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.report("render", 90)
	out, err := g.renderer.Encode(ctx, plan)
	if err != nil {
		return nil, err
	}

	clip, err := audio.DecodeWAV(out)
	if err != nil {
		return nil, &podcast.AudioError{Stage: podcast.StageTimeline, Section: -1, Err: err}
	}

	g.report("done", 100)
	slog.Info("episode generated",
		"title", pod.Title,
		"sections", len(pod.Sections),
		"audio_duration", clip.Duration().Round(time.Second),
		"elapsed", time.Since(start).Round(time.Second),
	)
	return &Result{Script: pod, Audio: out, Duration: clip.Duration()}, nil
}

// assembleScript runs the outline and expansion stages.
func (g *Generator) assembleScript(ctx context.Context, req Request) (*podcast.Podcast, error) {
	ctx, end := observe.StartStage(ctx, "script")
	pod, err := g.scripter.Assemble(ctx, script.PlanRequest{
		Topic:         req.Topic,
		TargetMinutes: req.TargetMinutes,
		Style:         req.Style,
		Tone:          req.Tone,
		KeyPoints:     strings.Join(req.KeyPoints, "\n"),
	}, g.scriptProgress())
	end(err)
	return pod, err
}

// scriptProgress maps section completion onto the 0..40% band of the run.
func (g *Generator) scriptProgress() script.ProgressFunc {
	if g.progress == nil {
		return nil
	}
	return func(done, total int) {
		if total > 0 {
			g.progress("script", done*40/total)
		}
	}
}

// sectionJobs holds one section's speaker-tagged synthesis jobs.
type sectionJobs struct {
	jobs []synth.Job
}

// splitSections derives per-section synthesis jobs from the script.
func (g *Generator) splitSections(pod *podcast.Podcast) []sectionJobs {
	sections := make([]sectionJobs, len(pod.Sections))
	for i, sec := range pod.Sections {
		for _, seg := range g.splitter.Split(sec.Transcript) {
			sections[i].jobs = append(sections[i].jobs, synth.Job{
				Text:  seg.Text,
				Voice: g.voice(seg.Role),
			})
		}
	}
	return sections
}

// voice resolves the voice profile for a role, falling back to the host
// voice when the role has no entry.
func (g *Generator) voice(role podcast.Role) tts.VoiceProfile {
	if v, ok := g.voices[role]; ok {
		return v
	}
	return g.voices[podcast.RoleHost]
}

// synthesizeSections flattens every section's jobs into one batched
// synthesis pass, then concatenates each section's clips back together.
// Flattening lets segments from different sections share the same batches.
func (g *Generator) synthesizeSections(ctx context.Context, sections []sectionJobs) ([]*audio.Clip, error) {
	ctx, end := observe.StartStage(ctx, "speech")

	var flat []synth.Job
	bounds := make([][2]int, len(sections))
	for i, sec := range sections {
		bounds[i] = [2]int{len(flat), len(flat) + len(sec.jobs)}
		flat = append(flat, sec.jobs...)
	}

	clips, err := g.synthesizer.SynthesizeAll(ctx, flat)
	if err != nil {
		end(err)
		return nil, err
	}

	out := make([]*audio.Clip, len(sections))
	for i, b := range bounds {
		if b[0] == b[1] {
			continue
		}
		joined, err := audio.Concat(clips[b[0]:b[1]]...)
		if err != nil {
			err = &podcast.AudioError{Stage: podcast.StageSpeech, Section: i, Err: err}
			end(err)
			return nil, err
		}
		out[i] = joined
	}
	end(nil)
	return out, nil
}

// generateEffects fills the plan's intro, transition, outro, and per-section
// effect slots concurrently. Every failure is logged and leaves the slot
// empty; effects never abort the run.
func (g *Generator) generateEffects(ctx context.Context, req Request, pod *podcast.Podcast, plan *timeline.Plan) {
	if g.effects == nil || !req.AddEffects {
		return
	}

	ctx, end := observe.StartStage(ctx, "effects")
	defer end(nil)

	eg, ectx := errgroup.WithContext(ctx)
	if req.IntroOutro {
		eg.Go(func() error {
			plan.Intro = g.generateEffect(ectx, introPrompt(req.Topic), "intro")
			return nil
		})
		eg.Go(func() error {
			plan.Transition = g.generateEffect(ectx, transitionPrompt(req.Topic), "transition")
			return nil
		})
		eg.Go(func() error {
			plan.Outro = g.generateEffect(ectx, outroPrompt(req.Topic), "outro")
			return nil
		})
	}
	for i, sec := range pod.OutlineSections {
		if sec.SoundEffectPrompt == "" {
			continue
		}
		prompt := sec.SoundEffectPrompt
		eg.Go(func() error {
			plan.Sections[i].Effect = g.generateEffect(ectx, prompt, fmt.Sprintf("section %d", i))
			return nil
		})
	}
	eg.Wait()
}

// generateEffect produces one faded effect clip, or nil on failure.
func (g *Generator) generateEffect(ctx context.Context, prompt, slot string) *audio.Clip {
	start := time.Now()
	clip, err := g.effects.Generate(ctx, prompt, defaultEffectDuration)
	g.metrics.RecordEffect(ctx, time.Since(start), err)
	if err != nil {
		slog.Warn("sound effect generation failed; continuing without it",
			"slot", slot,
			"error", err,
		)
		return nil
	}
	clip = audio.FadeIn(clip, effectFadeIn)
	clip = audio.FadeOut(clip, effectFadeOut)
	return clip
}

func (g *Generator) report(stage string, percent int) {
	if g.progress != nil {
		g.progress(stage, percent)
	}
}

func introPrompt(topic string) string {
	return fmt.Sprintf("A clear intro to a podcast on the topic %s", topic)
}

func transitionPrompt(topic string) string {
	return fmt.Sprintf("A clear transition in a podcast on the topic %s", topic)
}

func outroPrompt(topic string) string {
	return fmt.Sprintf("A clear outro to a podcast on the topic %s", topic)
}
