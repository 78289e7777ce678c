// Command podforge generates a complete podcast episode from a topic: an LLM
// writes the script, a TTS provider voices it, and a sound generator adds the
// intro, transitions, and effects.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/joho/godotenv"

	"github.com/podforge/podforge/internal/config"
	"github.com/podforge/podforge/internal/observe"
	"github.com/podforge/podforge/internal/pipeline"
	"github.com/podforge/podforge/internal/script"
	"github.com/podforge/podforge/internal/segment"
	"github.com/podforge/podforge/internal/synth"
	"github.com/podforge/podforge/internal/timeline"
	"github.com/podforge/podforge/internal/topic"
	"github.com/podforge/podforge/pkg/audio"
	"github.com/podforge/podforge/pkg/podcast"
	"github.com/podforge/podforge/pkg/provider/llm"
	"github.com/podforge/podforge/pkg/provider/llm/anyllm"
	oaillm "github.com/podforge/podforge/pkg/provider/llm/openai"
	"github.com/podforge/podforge/pkg/provider/soundfx"
	"github.com/podforge/podforge/pkg/provider/soundfx/replicate"
	"github.com/podforge/podforge/pkg/provider/tts"
	"github.com/podforge/podforge/pkg/provider/tts/elevenlabs"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	topicFlag := flag.String("topic", "", "episode topic (required unless -random-topic)")
	randomTopic := flag.Bool("random-topic", false, "pick a random Wikipedia article as the topic")
	minutes := flag.Int("minutes", 0, "target episode length in minutes (overrides config)")
	keyPoints := flag.String("key-points", "", "comma-separated points the episode must cover")
	outPath := flag.String("out", "episode.wav", "output WAV file path")
	listVoices := flag.Bool("list-voices", false, "list available TTS voices and exit")
	flag.Parse()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "podforge: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "podforge: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "podforge"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	ttsProvider, err := reg.CreateTTS(cfg.Providers.TTS)
	if err != nil {
		slog.Error("failed to create tts provider", "name", cfg.Providers.TTS.Name, "err", err)
		return 1
	}

	if *listVoices {
		return printVoices(ctx, ttsProvider)
	}

	llmProvider, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		slog.Error("failed to create llm provider", "name", cfg.Providers.LLM.Name, "err", err)
		return 1
	}

	var fxProvider soundfx.Provider
	if cfg.Podcast.AddEffects && cfg.Providers.SoundFX.Name != "" {
		fxProvider, err = reg.CreateSoundFX(cfg.Providers.SoundFX)
		if err != nil {
			slog.Error("failed to create soundfx provider", "name", cfg.Providers.SoundFX.Name, "err", err)
			return 1
		}
	}

	// ── Topic ─────────────────────────────────────────────────────────────────
	episodeTopic := *topicFlag
	if *randomTopic {
		episodeTopic, err = topic.New().Random(ctx)
		if err != nil {
			slog.Error("failed to fetch random topic", "err", err)
			return 1
		}
		slog.Info("using random topic", "topic", episodeTopic)
	}
	if episodeTopic == "" {
		fmt.Fprintln(os.Stderr, "podforge: -topic is required (or use -random-topic)")
		return 2
	}

	targetMinutes := cfg.Podcast.TargetMinutes
	if *minutes > 0 {
		targetMinutes = *minutes
	}

	// ── Pipeline wiring ───────────────────────────────────────────────────────
	generator := buildGenerator(cfg, llmProvider, ttsProvider, fxProvider)

	req := pipeline.Request{
		Topic:         episodeTopic,
		TargetMinutes: targetMinutes,
		Style:         cfg.Podcast.Style,
		Tone:          cfg.Podcast.Tone,
		AddEffects:    cfg.Podcast.AddEffects,
		IntroOutro:    cfg.Podcast.IntroOutro,
	}
	if *keyPoints != "" {
		for _, p := range strings.Split(*keyPoints, ",") {
			if p = strings.TrimSpace(p); p != "" {
				req.KeyPoints = append(req.KeyPoints, p)
			}
		}
	}

	slog.Info("generating episode",
		"topic", req.Topic,
		"target_minutes", req.TargetMinutes,
		"effects", req.AddEffects,
		"out", *outPath,
	)

	result, err := generator.Generate(ctx, req)
	if err != nil {
		logFailure(err)
		return 1
	}

	if err := os.WriteFile(*outPath, result.Audio, 0o644); err != nil {
		slog.Error("failed to write output", "path", *outPath, "err", err)
		return 1
	}

	fmt.Printf("%s\n\n%s\n\nWrote %s (%s)\n",
		result.Script.Title,
		result.Script.Description,
		*outPath,
		result.Duration.Round(time.Second),
	)
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// The native OpenAI client supports direct configuration; everything else
	// goes through any-llm. anthropic, gemini, deepseek, mistral, groq,
	// llamacpp, and llamafile all share the same pattern: optional APIKey +
	// optional BaseURL.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		return oaillm.New(entry.ResolveAPIKey(), entry.Model, opts...)
	})

	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if key := entry.ResolveAPIKey(); key != "" {
				opts = append(opts, anyllmlib.WithAPIKey(key))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		return elevenlabs.New(entry.ResolveAPIKey(), opts...)
	})

	// ── SoundFX ───────────────────────────────────────────────────────────────

	reg.RegisterSoundFX("replicate", func(entry config.ProviderEntry) (soundfx.Provider, error) {
		var opts []replicate.Option
		if entry.BaseURL != "" {
			opts = append(opts, replicate.WithBaseURL(entry.BaseURL))
		}
		return replicate.New(entry.ResolveAPIKey(), opts...)
	})
}

// buildGenerator assembles the pipeline stages from config.
func buildGenerator(cfg *config.Config, llmProvider llm.Provider, ttsProvider tts.Provider, fxProvider soundfx.Provider) *pipeline.Generator {
	scripter := script.NewAssembler(llmProvider)

	var synthOpts []synth.Option
	if cfg.Synthesis.MaxChunkChars > 0 {
		synthOpts = append(synthOpts, synth.WithMaxChunkChars(cfg.Synthesis.MaxChunkChars))
	}
	if cfg.Synthesis.BatchWidth > 0 {
		synthOpts = append(synthOpts, synth.WithBatchWidth(cfg.Synthesis.BatchWidth))
	}
	if cfg.Synthesis.BatchDelay > 0 {
		synthOpts = append(synthOpts, synth.WithBatchDelay(cfg.Synthesis.BatchDelay.Std()))
	}
	synthesizer := synth.New(ttsProvider, synthOpts...)

	var timelineOpts []timeline.Option
	if cfg.Audio.SampleRate > 0 {
		channels := cfg.Audio.Channels
		if channels == 0 {
			channels = 1
		}
		timelineOpts = append(timelineOpts, timeline.WithFormat(audio.Format{
			SampleRate: cfg.Audio.SampleRate,
			Channels:   channels,
		}))
	}
	if cfg.Audio.MasterFade > 0 {
		timelineOpts = append(timelineOpts, timeline.WithMasterFade(cfg.Audio.MasterFade.Std()))
	}
	renderer := timeline.New(timelineOpts...)

	voices := map[podcast.Role]tts.VoiceProfile{
		podcast.RoleHost:  {ID: cfg.Podcast.Voices.Host, Provider: cfg.Providers.TTS.Name},
		podcast.RoleGuest: {ID: cfg.Podcast.Voices.Voice(podcast.RoleGuest), Provider: cfg.Providers.TTS.Name},
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithVoices(voices),
		pipeline.WithStrategy(cfg.Audio.Strategy),
		pipeline.WithProgress(func(stage string, percent int) {
			fmt.Fprintf(os.Stderr, "\r[%3d%%] %-8s", percent, stage)
			if percent >= 100 {
				fmt.Fprintln(os.Stderr)
			}
		}),
	}
	if fxProvider != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithEffects(fxProvider))
	}

	return pipeline.New(scripter, segment.New(), synthesizer, renderer, pipelineOpts...)
}

// printVoices lists the TTS provider's voice catalogue on stdout.
func printVoices(ctx context.Context, p tts.Provider) int {
	voices, err := p.ListVoices(ctx)
	if err != nil {
		slog.Error("failed to list voices", "err", err)
		return 1
	}
	for _, v := range voices {
		fmt.Printf("%-24s %s\n", v.ID, v.Name)
	}
	return 0
}

// logFailure logs a pipeline error with its stage context when available.
// Rate limits are called out explicitly so the user knows a retry will work.
func logFailure(err error) {
	if podcast.IsRateLimited(err) {
		var rl *podcast.RateLimitError
		args := []any{"err", err}
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			args = append(args, "retry_after", rl.RetryAfter)
		}
		slog.Error("provider rate limit hit, try again shortly", args...)
		return
	}

	var genErr *podcast.GenerationError
	var audErr *podcast.AudioError
	switch {
	case errors.As(err, &genErr):
		slog.Error("script generation failed", "stage", genErr.Stage, "section", genErr.Section, "err", genErr.Err)
	case errors.As(err, &audErr):
		slog.Error("audio production failed", "stage", audErr.Stage, "section", audErr.Section, "err", audErr.Err)
	default:
		slog.Error("generation failed", "err", err)
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
