// Package synth converts script text into speech audio.
//
// Providers enforce a maximum request text length, so long text is split into
// ordered chunks, synthesized with bounded concurrency, and re-concatenated
// strictly in original chunk order regardless of which network call returns
// first. Every provider call goes through the shared retry policy and a
// circuit breaker; rate-limit signals surface as *podcast.RateLimitError so
// callers can tell "try again later" from "permanently broken".
package synth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/podforge/podforge/internal/observe"
	"github.com/podforge/podforge/internal/resilience"
	"github.com/podforge/podforge/pkg/audio"
	"github.com/podforge/podforge/pkg/podcast"
	"github.com/podforge/podforge/pkg/provider/tts"
)

const (
	// DefaultMaxChunkChars keeps chunks safely under the ~5000 character
	// provider request limit.
	DefaultMaxChunkChars = 4950

	// DefaultBatchWidth is how many synthesis requests run concurrently.
	DefaultBatchWidth = 5

	// DefaultBatchDelay is the pause between consecutive batches, easing
	// provider rate limits.
	DefaultBatchDelay = 500 * time.Millisecond
)

// Job is one independent unit of text to synthesize with a single voice.
type Job struct {
	Text  string
	Voice tts.VoiceProfile
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithMaxChunkChars overrides the chunking limit. The effective limit is
// never higher than the provider's own request limit.
func WithMaxChunkChars(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxChunkChars = n
		}
	}
}

// WithBatchWidth bounds how many requests are in flight at once.
func WithBatchWidth(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.batchWidth = n
		}
	}
}

// WithBatchDelay sets the pause between consecutive batches.
func WithBatchDelay(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d >= 0 {
			s.batchDelay = d
		}
	}
}

// WithRetryPolicy overrides the retry policy applied to every provider call.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(s *Synthesizer) {
		s.retry = p
	}
}

// WithMetrics records latencies and counters on m instead of the package
// default.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Synthesizer) {
		s.metrics = m
	}
}

// Synthesizer chunks, batches, and re-orders TTS requests against a single
// provider. Safe for concurrent use.
type Synthesizer struct {
	provider      tts.Provider
	retry         resilience.Policy
	breaker       *resilience.Breaker
	maxChunkChars int
	batchWidth    int
	batchDelay    time.Duration
	metrics       *observe.Metrics
}

// New returns a Synthesizer over provider.
func New(provider tts.Provider, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider:      provider,
		breaker:       resilience.NewBreaker(resilience.BreakerConfig{Name: "tts"}),
		maxChunkChars: DefaultMaxChunkChars,
		batchWidth:    DefaultBatchWidth,
		batchDelay:    DefaultBatchDelay,
		metrics:       observe.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if limit := provider.MaxTextLen(); limit > 0 && limit < s.maxChunkChars {
		s.maxChunkChars = limit
	}
	return s
}

// Synthesize converts a single text of at most the chunk limit into speech.
// The call is idempotent at the provider and retried under the shared policy.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) (*audio.Clip, error) {
	start := time.Now()
	var clip *audio.Clip
	err := s.retry.Do(ctx, "synthesize", func(ctx context.Context) error {
		return s.breaker.Execute(func() error {
			var err error
			clip, err = s.provider.Synthesize(ctx, text, voice)
			return err
		})
	})
	s.metrics.RecordTTS(ctx, time.Since(start), err)
	if err != nil {
		if podcast.IsRateLimited(err) {
			return nil, err
		}
		return nil, &podcast.AudioError{Stage: podcast.StageSpeech, Section: -1, Err: err}
	}
	return clip, nil
}

// SynthesizeLong splits text into chunks not exceeding the chunk limit,
// synthesizes them, and concatenates the clips in original chunk order.
func (s *Synthesizer) SynthesizeLong(ctx context.Context, text string, voice tts.VoiceProfile) (*audio.Clip, error) {
	clips, err := s.SynthesizeAll(ctx, []Job{{Text: text, Voice: voice}})
	if err != nil {
		return nil, err
	}
	return clips[0], nil
}

// request is one chunk-level provider call within a batch run.
type request struct {
	job   int
	chunk int
	text  string
	voice tts.VoiceProfile
}

// SynthesizeAll synthesizes every job and returns one clip per job,
// index-aligned with jobs. Jobs are expanded into chunk requests which run
// concurrently in batches of the configured width with a short pause between
// batches. Final per-job concatenation follows chunk order regardless of
// completion order.
//
// If any request fails permanently, the whole call fails and sibling results
// are discarded — callers never assemble audio from an incomplete set.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, jobs []Job) ([]*audio.Clip, error) {
	var requests []request
	chunkCounts := make([]int, len(jobs))
	for j, job := range jobs {
		chunks := SplitText(job.Text, s.maxChunkChars)
		chunkCounts[j] = len(chunks)
		for c, chunk := range chunks {
			requests = append(requests, request{job: j, chunk: c, text: chunk, voice: job.Voice})
		}
	}

	clips := make([]*audio.Clip, len(requests))
	for batchStart := 0; batchStart < len(requests); batchStart += s.batchWidth {
		if batchStart > 0 && s.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}

		end := min(batchStart+s.batchWidth, len(requests))
		eg, egCtx := errgroup.WithContext(ctx)
		for i := batchStart; i < end; i++ {
			eg.Go(func() error {
				clip, err := s.Synthesize(egCtx, requests[i].text, requests[i].voice)
				if err != nil {
					return fmt.Errorf("chunk %d of job %d: %w", requests[i].chunk+1, requests[i].job+1, err)
				}
				clips[i] = clip
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	// Reassemble per-job clips in chunk order.
	out := make([]*audio.Clip, len(jobs))
	pos := 0
	for j := range jobs {
		if chunkCounts[j] == 0 {
			out[j] = &audio.Clip{}
			continue
		}
		parts := clips[pos : pos+chunkCounts[j]]
		pos += chunkCounts[j]

		joined, err := audio.Concat(parts...)
		if err != nil {
			return nil, &podcast.AudioError{Stage: podcast.StageSpeech, Section: -1, Err: err}
		}
		out[j] = joined
	}
	return out, nil
}
