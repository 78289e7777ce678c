// Package config provides the configuration schema and loader for the
// Podforge generation pipeline.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/podforge/podforge/internal/timeline"
	"github.com/podforge/podforge/pkg/podcast"
)

// Duration wraps time.Duration with YAML support for strings like "500ms".
type Duration time.Duration

// UnmarshalYAML decodes either a duration string ("1s", "500ms") or a plain
// integer number of nanoseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("invalid duration value: %w", err)
		}
		*d = Duration(n)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// LogLevel controls log verbosity for the Podforge CLI.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Podforge.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
	Podcast   PodcastConfig   `yaml:"podcast"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Audio     AudioConfig     `yaml:"audio"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level controls verbosity.
	Level LogLevel `yaml:"level"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage.
type ProvidersConfig struct {
	LLM     ProviderEntry `yaml:"llm"`
	TTS     ProviderEntry `yaml:"tts"`
	SoundFX ProviderEntry `yaml:"soundfx"`
}

// ProviderEntry is the common configuration block shared by all provider types.
type ProviderEntry struct {
	// Name selects the provider implementation (e.g., "openai", "elevenlabs").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API. Prefer
	// APIKeyEnv so keys stay out of config files.
	APIKey string `yaml:"api_key"`

	// APIKeyEnv names an environment variable holding the API key.
	// When both APIKey and APIKeyEnv are set, the environment variable wins.
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gpt-4o", "eleven_multilingual_v2").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// PodcastConfig holds defaults for the scripted content of an episode.
type PodcastConfig struct {
	// TargetMinutes is the default episode length when the caller gives none.
	TargetMinutes int `yaml:"target_minutes"`

	// Style is a free-text production style injected into the LLM prompts
	// (e.g., "interview between a host and an expert guest").
	Style string `yaml:"style"`

	// Tone is the default conversational tone (e.g., "casual", "academic").
	Tone string `yaml:"tone"`

	// Voices maps speaker roles to provider voice IDs.
	Voices VoicesConfig `yaml:"voices"`

	// AddEffects enables sound effect generation for intro, transitions,
	// outro, and per-section cues.
	AddEffects bool `yaml:"add_effects"`

	// IntroOutro enables the generated intro and outro clips. Ignored when
	// AddEffects is false.
	IntroOutro bool `yaml:"intro_outro"`
}

// VoicesConfig maps speaker roles to provider-specific voice identifiers.
type VoicesConfig struct {
	Host  string `yaml:"host"`
	Guest string `yaml:"guest"`
}

// Voice returns the configured voice ID for the given role, falling back
// to the host voice for unknown roles.
func (v VoicesConfig) Voice(role podcast.Role) string {
	if role == podcast.RoleGuest && v.Guest != "" {
		return v.Guest
	}
	return v.Host
}

// SynthesisConfig tunes the speech synthesis batching behaviour.
type SynthesisConfig struct {
	// MaxChunkChars caps the text length of a single TTS request. Longer
	// texts are split at whitespace. Zero means the built-in default.
	MaxChunkChars int `yaml:"max_chunk_chars"`

	// BatchWidth is the number of TTS requests sent concurrently.
	// Zero means the built-in default.
	BatchWidth int `yaml:"batch_width"`

	// BatchDelay is the pause between consecutive batches.
	// Zero means the built-in default.
	BatchDelay Duration `yaml:"batch_delay"`
}

// AudioConfig holds output format and compositing settings.
type AudioConfig struct {
	// SampleRate is the output sample rate in Hz (e.g., 44100).
	SampleRate int `yaml:"sample_rate"`

	// Channels is the output channel count (1 or 2).
	Channels int `yaml:"channels"`

	// Strategy selects how effect clips are composited: "sequential" or
	// "overlay". Empty means sequential.
	Strategy timeline.Strategy `yaml:"strategy"`

	// MasterFade is the fade applied at the absolute start and end of the
	// final artifact. Zero means the built-in default of one second.
	MasterFade Duration `yaml:"master_fade"`
}
