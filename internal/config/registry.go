package config

import (
	"errors"
	"sync"

	"github.com/podforge/podforge/pkg/provider/llm"
	"github.com/podforge/podforge/pkg/provider/soundfx"
	"github.com/podforge/podforge/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	llm     map[string]func(ProviderEntry) (llm.Provider, error)
	tts     map[string]func(ProviderEntry) (tts.Provider, error)
	soundfx map[string]func(ProviderEntry) (soundfx.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:     make(map[string]func(ProviderEntry) (llm.Provider, error)),
		tts:     make(map[string]func(ProviderEntry) (tts.Provider, error)),
		soundfx: make(map[string]func(ProviderEntry) (soundfx.Provider, error)),
	}
}

// RegisterLLM registers an LLM provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterSoundFX registers a sound generation provider factory under name.
func (r *Registry) RegisterSoundFX(name string, factory func(ProviderEntry) (soundfx.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.soundfx[name] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under
// entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProviderNotRegistered
	}
	return factory(entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under
// entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProviderNotRegistered
	}
	return factory(entry)
}

// CreateSoundFX instantiates a sound generation provider using the factory
// registered under entry.Name.
func (r *Registry) CreateSoundFX(entry ProviderEntry) (soundfx.Provider, error) {
	r.mu.RLock()
	factory, ok := r.soundfx[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProviderNotRegistered
	}
	return factory(entry)
}
