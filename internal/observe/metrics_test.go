package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordTTS_CountsSuccesses(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTTS(ctx, 120*time.Millisecond, nil)
	m.RecordTTS(ctx, 80*time.Millisecond, nil)
	m.RecordTTS(ctx, 50*time.Millisecond, errors.New("boom"))

	rm := collect(t, reader)

	clips := findMetric(rm, "podforge.clips.synthesized")
	if clips == nil {
		t.Fatal("podforge.clips.synthesized not recorded")
	}
	sum, ok := clips.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 {
		t.Fatalf("unexpected data shape: %#v", clips.Data)
	}
	if got := sum.DataPoints[0].Value; got != 2 {
		t.Errorf("clips synthesized = %d, want 2 (failure must not count)", got)
	}

	hist := findMetric(rm, "podforge.tts.duration")
	if hist == nil {
		t.Fatal("podforge.tts.duration not recorded")
	}
	h, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok || len(h.DataPoints) != 1 {
		t.Fatalf("unexpected histogram shape: %#v", hist.Data)
	}
	if got := h.DataPoints[0].Count; got != 3 {
		t.Errorf("tts duration observations = %d, want 3", got)
	}
}

func TestStageErrors_TaggedByStage(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOutline(ctx, time.Second, errors.New("model unavailable"))
	m.RecordEffect(ctx, time.Second, errors.New("throttled"))
	m.RecordEffect(ctx, time.Second, nil)

	errCount := findMetric(collect(t, reader), "podforge.stage.errors")
	if errCount == nil {
		t.Fatal("podforge.stage.errors not recorded")
	}
	sum, ok := errCount.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected data shape: %#v", errCount.Data)
	}
	stages := map[string]int64{}
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attribute.Key("stage")); found {
			stages[v.AsString()] = dp.Value
		}
	}
	if stages["outline"] != 1 || stages["effects"] != 1 {
		t.Errorf("stage error counts = %v, want outline=1 effects=1", stages)
	}
}

func TestRecordSection_CountsExpansions(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSection(ctx, time.Second, nil)
	m.RecordSection(ctx, time.Second, nil)

	sections := findMetric(collect(t, reader), "podforge.sections.generated")
	if sections == nil {
		t.Fatal("podforge.sections.generated not recorded")
	}
	sum := sections.Data.(metricdata.Sum[int64])
	if got := sum.DataPoints[0].Value; got != 2 {
		t.Errorf("sections generated = %d, want 2", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordOutline(ctx, time.Second, nil)
	m.RecordSection(ctx, time.Second, errors.New("x"))
	m.RecordTTS(ctx, time.Second, nil)
	m.RecordEffect(ctx, time.Second, nil)
	m.RecordRender(ctx, time.Second, nil)
}

func TestDefault_ReturnsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Error("Default should return the same instance")
	}
}
