package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/podforge/podforge/internal/timeline"
	"github.com/podforge/podforge/pkg/podcast"
)

const validYAML = `
logging:
  level: debug
providers:
  llm:
    name: openai
    model: gpt-4o
    api_key_env: OPENAI_API_KEY
  tts:
    name: elevenlabs
    api_key_env: ELEVENLABS_API_KEY
    options:
      output_format: pcm_24000
  soundfx:
    name: replicate
    api_key_env: REPLICATE_API_TOKEN
podcast:
  target_minutes: 6
  style: interview
  tone: casual
  voices:
    host: host-voice
    guest: guest-voice
  add_effects: true
  intro_outro: true
synthesis:
  max_chunk_chars: 4950
  batch_width: 5
  batch_delay: 500ms
audio:
  sample_rate: 44100
  channels: 1
  strategy: overlay
  master_fade: 1s
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Logging.Level != LogDebug {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Providers.LLM.Name != "openai" || cfg.Providers.LLM.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.Providers.LLM)
	}
	if got := cfg.Providers.TTS.Options["output_format"]; got != "pcm_24000" {
		t.Errorf("tts output_format = %v, want pcm_24000", got)
	}
	if cfg.Podcast.TargetMinutes != 6 || !cfg.Podcast.AddEffects || !cfg.Podcast.IntroOutro {
		t.Errorf("podcast = %+v", cfg.Podcast)
	}
	if cfg.Synthesis.BatchDelay.Std() != 500*time.Millisecond {
		t.Errorf("batch delay = %v, want 500ms", cfg.Synthesis.BatchDelay)
	}
	if cfg.Audio.Strategy != timeline.StrategyOverlay {
		t.Errorf("strategy = %q, want overlay", cfg.Audio.Strategy)
	}
	if cfg.Audio.MasterFade.Std() != time.Second {
		t.Errorf("master fade = %v, want 1s", cfg.Audio.MasterFade)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := strings.Replace(validYAML, "tone: casual", "tonality: casual", 1)
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("providers: [")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Logging:   LoggingConfig{Level: "loud"},
		Providers: ProvidersConfig{},
		Podcast:   PodcastConfig{TargetMinutes: -1},
		Audio:     AudioConfig{Channels: 7, Strategy: "shuffle"},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"logging.level",
		"providers.llm.name",
		"providers.tts.name",
		"podcast.target_minutes",
		"podcast.voices.host",
		"audio.channels",
		"audio.strategy",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got:\n%v", want, err)
		}
	}
}

func TestValidate_EffectsRequireSoundFX(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{
			LLM: ProviderEntry{Name: "openai"},
			TTS: ProviderEntry{Name: "elevenlabs"},
		},
		Podcast: PodcastConfig{
			AddEffects: true,
			Voices:     VoicesConfig{Host: "h"},
		},
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "soundfx") {
		t.Fatalf("err = %v, want soundfx requirement", err)
	}

	cfg.Providers.SoundFX.Name = "replicate"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDuration_Unmarshal(t *testing.T) {
	type doc struct {
		D Duration `yaml:"d"`
	}

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"d: 500ms", 500 * time.Millisecond},
		{"d: 1m30s", 90 * time.Second},
		{"d: 1000000000", time.Second},
	}
	for _, tt := range tests {
		var got doc
		if err := yaml.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Errorf("unmarshal %q: %v", tt.in, err)
			continue
		}
		if got.D.Std() != tt.want {
			t.Errorf("unmarshal %q = %v, want %v", tt.in, got.D, tt.want)
		}
	}

	var bad doc
	if err := yaml.Unmarshal([]byte("d: soon"), &bad); err == nil {
		t.Error("expected error for invalid duration string")
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("PODFORGE_TEST_KEY", "from-env")

	entry := ProviderEntry{APIKey: "inline", APIKeyEnv: "PODFORGE_TEST_KEY"}
	if got := entry.ResolveAPIKey(); got != "from-env" {
		t.Errorf("key = %q, want env value to win", got)
	}

	entry.APIKeyEnv = "PODFORGE_TEST_MISSING"
	if got := entry.ResolveAPIKey(); got != "inline" {
		t.Errorf("key = %q, want inline fallback", got)
	}
}

func TestVoicesConfig_Voice(t *testing.T) {
	v := VoicesConfig{Host: "h", Guest: "g"}
	if got := v.Voice(podcast.RoleHost); got != "h" {
		t.Errorf("host voice = %q", got)
	}
	if got := v.Voice(podcast.RoleGuest); got != "g" {
		t.Errorf("guest voice = %q", got)
	}

	noGuest := VoicesConfig{Host: "h"}
	if got := noGuest.Voice(podcast.RoleGuest); got != "h" {
		t.Errorf("guest fallback = %q, want host voice", got)
	}
}
