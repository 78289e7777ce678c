// Package observe provides observability primitives for podforge:
// OpenTelemetry metrics for every pipeline stage and a Prometheus exporter
// bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([Default]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all podforge metrics.
const meterName = "github.com/podforge/podforge"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// OutlineDuration tracks outline planning latency.
	OutlineDuration metric.Float64Histogram

	// SectionDuration tracks per-section expansion latency.
	SectionDuration metric.Float64Histogram

	// TTSDuration tracks per-request speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// EffectDuration tracks sound-effect generation latency.
	EffectDuration metric.Float64Histogram

	// RenderDuration tracks timeline rendering and encoding latency.
	RenderDuration metric.Float64Histogram

	// --- Counters ---

	// SectionsGenerated counts expanded sections.
	SectionsGenerated metric.Int64Counter

	// ClipsSynthesized counts successful TTS requests.
	ClipsSynthesized metric.Int64Counter

	// StageErrors counts stage failures. Use with attribute:
	//   attribute.String("stage", ...)
	StageErrors metric.Int64Counter
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the package-level Metrics instance, creating it on first
// use from the global meter provider.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics, _ = NewMetrics(otel.GetMeterProvider())
	})
	return defaultMetrics
}

// NewMetrics creates all instruments on a meter from mp. Instrument creation
// errors are returned but the partially populated Metrics is still usable —
// nil instruments are tolerated by the Record helpers.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var err error
	m.OutlineDuration, err = meter.Float64Histogram("podforge.outline.duration",
		metric.WithDescription("Outline planning latency"),
		metric.WithUnit("s"))
	record(err)

	m.SectionDuration, err = meter.Float64Histogram("podforge.section.duration",
		metric.WithDescription("Section expansion latency"),
		metric.WithUnit("s"))
	record(err)

	m.TTSDuration, err = meter.Float64Histogram("podforge.tts.duration",
		metric.WithDescription("Speech synthesis request latency"),
		metric.WithUnit("s"))
	record(err)

	m.EffectDuration, err = meter.Float64Histogram("podforge.effect.duration",
		metric.WithDescription("Sound effect generation latency"),
		metric.WithUnit("s"))
	record(err)

	m.RenderDuration, err = meter.Float64Histogram("podforge.render.duration",
		metric.WithDescription("Timeline render and encode latency"),
		metric.WithUnit("s"))
	record(err)

	m.SectionsGenerated, err = meter.Int64Counter("podforge.sections.generated",
		metric.WithDescription("Expanded script sections"))
	record(err)

	m.ClipsSynthesized, err = meter.Int64Counter("podforge.clips.synthesized",
		metric.WithDescription("Successful TTS requests"))
	record(err)

	m.StageErrors, err = meter.Int64Counter("podforge.stage.errors",
		metric.WithDescription("Pipeline stage failures"))
	record(err)

	return m, firstErr
}

// RecordOutline records one outline planning attempt.
func (m *Metrics) RecordOutline(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	if m.OutlineDuration != nil {
		m.OutlineDuration.Record(ctx, d.Seconds())
	}
	m.recordOutcome(ctx, "outline", err)
}

// RecordSection records one section expansion attempt.
func (m *Metrics) RecordSection(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	if m.SectionDuration != nil {
		m.SectionDuration.Record(ctx, d.Seconds())
	}
	if err == nil && m.SectionsGenerated != nil {
		m.SectionsGenerated.Add(ctx, 1)
	}
	m.recordOutcome(ctx, "section", err)
}

// RecordTTS records one speech synthesis request.
func (m *Metrics) RecordTTS(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	if m.TTSDuration != nil {
		m.TTSDuration.Record(ctx, d.Seconds())
	}
	if err == nil && m.ClipsSynthesized != nil {
		m.ClipsSynthesized.Add(ctx, 1)
	}
	m.recordOutcome(ctx, "speech", err)
}

// RecordEffect records one sound effect generation attempt.
func (m *Metrics) RecordEffect(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	if m.EffectDuration != nil {
		m.EffectDuration.Record(ctx, d.Seconds())
	}
	m.recordOutcome(ctx, "effects", err)
}

// RecordRender records one timeline render.
func (m *Metrics) RecordRender(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	if m.RenderDuration != nil {
		m.RenderDuration.Record(ctx, d.Seconds())
	}
	m.recordOutcome(ctx, "timeline", err)
}

func (m *Metrics) recordOutcome(ctx context.Context, stage string, err error) {
	if err == nil || m.StageErrors == nil {
		return
	}
	m.StageErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
