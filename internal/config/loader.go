package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":     {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts":     {"elevenlabs"},
	"soundfx": {"replicate"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Logging.Level != "" && !cfg.Logging.Level.IsValid() {
		errs = append(errs, fmt.Errorf("logging.level %q is invalid; valid values: debug, info, warn, error", cfg.Logging.Level))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("soundfx", cfg.Providers.SoundFX.Name)

	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	}
	if cfg.Providers.TTS.Name == "" {
		errs = append(errs, errors.New("providers.tts.name is required"))
	}
	if cfg.Podcast.AddEffects && cfg.Providers.SoundFX.Name == "" {
		errs = append(errs, errors.New("podcast.add_effects is enabled but providers.soundfx is not configured"))
	}

	if cfg.Podcast.TargetMinutes < 0 {
		errs = append(errs, fmt.Errorf("podcast.target_minutes %d must not be negative", cfg.Podcast.TargetMinutes))
	}
	if cfg.Podcast.Voices.Host == "" {
		errs = append(errs, errors.New("podcast.voices.host is required"))
	}
	if cfg.Podcast.Voices.Guest == "" {
		slog.Warn("podcast.voices.guest is empty; guest segments will use the host voice")
	}

	if cfg.Synthesis.MaxChunkChars < 0 {
		errs = append(errs, fmt.Errorf("synthesis.max_chunk_chars %d must not be negative", cfg.Synthesis.MaxChunkChars))
	}
	if cfg.Synthesis.BatchWidth < 0 {
		errs = append(errs, fmt.Errorf("synthesis.batch_width %d must not be negative", cfg.Synthesis.BatchWidth))
	}
	if cfg.Synthesis.BatchDelay < 0 {
		errs = append(errs, fmt.Errorf("synthesis.batch_delay %s must not be negative", cfg.Synthesis.BatchDelay))
	}

	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must not be negative", cfg.Audio.SampleRate))
	}
	if cfg.Audio.Channels != 0 && cfg.Audio.Channels != 1 && cfg.Audio.Channels != 2 {
		errs = append(errs, fmt.Errorf("audio.channels %d is invalid; valid values: 1, 2", cfg.Audio.Channels))
	}
	if cfg.Audio.Strategy != "" && !cfg.Audio.Strategy.IsValid() {
		errs = append(errs, fmt.Errorf("audio.strategy %q is invalid; valid values: sequential, overlay", cfg.Audio.Strategy))
	}
	if cfg.Audio.MasterFade < 0 {
		errs = append(errs, fmt.Errorf("audio.master_fade %s must not be negative", cfg.Audio.MasterFade))
	}

	return errors.Join(errs...)
}

// ResolveAPIKey returns the effective API key for the entry. When APIKeyEnv
// is set and the named environment variable is non-empty, it wins over the
// inline APIKey value.
func (e ProviderEntry) ResolveAPIKey() string {
	if e.APIKeyEnv != "" {
		if v := os.Getenv(e.APIKeyEnv); v != "" {
			return v
		}
	}
	return e.APIKey
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
