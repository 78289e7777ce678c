package audio

import (
	"testing"
	"time"
)

// monoClip builds a mono clip where every sample has the given value.
func monoClip(t *testing.T, rate, frames int, value int16) *Clip {
	t.Helper()
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		putSample(data, i, value)
	}
	return NewClip(data, Format{SampleRate: rate, Channels: 1})
}

func TestConcat(t *testing.T) {
	a := monoClip(t, 44100, 100, 1000)
	b := monoClip(t, 44100, 50, -1000)

	got, err := Concat(a, nil, b, &Clip{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Samples() != 150 {
		t.Errorf("samples = %d, want 150", got.Samples())
	}
	if sampleAt(got.Data, 0) != 1000 {
		t.Errorf("first sample = %d, want 1000", sampleAt(got.Data, 0))
	}
	if sampleAt(got.Data, 100) != -1000 {
		t.Errorf("sample 100 = %d, want -1000", sampleAt(got.Data, 100))
	}
}

func TestConcat_FormatMismatch(t *testing.T) {
	a := monoClip(t, 44100, 10, 0)
	b := monoClip(t, 22050, 10, 0)
	if _, err := Concat(a, b); err == nil {
		t.Fatal("expected format mismatch error")
	}
}

func TestConcat_AllEmpty(t *testing.T) {
	got, err := Concat(nil, &Clip{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected empty clip, got %d samples", got.Samples())
	}
}

func TestOverlay(t *testing.T) {
	base := monoClip(t, 1000, 1000, 100) // 1 second
	top := monoClip(t, 1000, 100, 50)

	got, err := Overlay(base, top, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Samples() != base.Samples() {
		t.Errorf("samples = %d, want %d (overlay keeps base length)", got.Samples(), base.Samples())
	}
	if v := sampleAt(got.Data, 499); v != 100 {
		t.Errorf("sample before offset = %d, want 100", v)
	}
	if v := sampleAt(got.Data, 500); v != 150 {
		t.Errorf("mixed sample = %d, want 150", v)
	}
	if v := sampleAt(got.Data, 600); v != 100 {
		t.Errorf("sample after top = %d, want 100", v)
	}
	// Input untouched.
	if v := sampleAt(base.Data, 500); v != 100 {
		t.Errorf("base was mutated: sample = %d, want 100", v)
	}
}

func TestOverlay_TruncatesPastEnd(t *testing.T) {
	base := monoClip(t, 1000, 100, 0)
	top := monoClip(t, 1000, 100, 50)

	got, err := Overlay(base, top, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Samples() != 100 {
		t.Errorf("samples = %d, want 100", got.Samples())
	}
	if v := sampleAt(got.Data, 99); v != 50 {
		t.Errorf("last sample = %d, want 50", v)
	}
}

func TestOverlay_ClampsMix(t *testing.T) {
	base := monoClip(t, 1000, 10, 30000)
	top := monoClip(t, 1000, 10, 30000)

	got, err := Overlay(base, top, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := sampleAt(got.Data, 0); v != 32767 {
		t.Errorf("sample = %d, want clamped 32767", v)
	}
}

func TestGain(t *testing.T) {
	c := monoClip(t, 1000, 10, 1000)

	half := Gain(c, 0.5)
	if v := sampleAt(half.Data, 0); v != 500 {
		t.Errorf("half gain sample = %d, want 500", v)
	}

	boosted := Gain(c, 100)
	if v := sampleAt(boosted.Data, 0); v != 32767 {
		t.Errorf("boosted sample = %d, want clamped 32767", v)
	}
}

func TestFadeIn(t *testing.T) {
	c := monoClip(t, 1000, 1000, 10000) // 1 second
	got := FadeIn(c, 500*time.Millisecond)

	if v := sampleAt(got.Data, 0); v != 0 {
		t.Errorf("first sample = %d, want 0", v)
	}
	if v := sampleAt(got.Data, 250); v >= 10000 || v <= 0 {
		t.Errorf("mid-fade sample = %d, want between 0 and 10000", v)
	}
	if v := sampleAt(got.Data, 600); v != 10000 {
		t.Errorf("post-fade sample = %d, want 10000", v)
	}
	// Input untouched.
	if v := sampleAt(c.Data, 0); v != 10000 {
		t.Errorf("input was mutated: sample = %d, want 10000", v)
	}
}

func TestFadeOut(t *testing.T) {
	c := monoClip(t, 1000, 1000, 10000)
	got := FadeOut(c, 500*time.Millisecond)

	if v := sampleAt(got.Data, 0); v != 10000 {
		t.Errorf("first sample = %d, want 10000", v)
	}
	if v := sampleAt(got.Data, 999); v != 0 {
		t.Errorf("last sample = %d, want 0", v)
	}
}

func TestFade_LongerThanClip(t *testing.T) {
	c := monoClip(t, 1000, 10, 10000)
	got := FadeIn(c, time.Minute)
	if got.Samples() != 10 {
		t.Errorf("samples = %d, want 10", got.Samples())
	}
	if v := sampleAt(got.Data, 0); v != 0 {
		t.Errorf("first sample = %d, want 0", v)
	}
}

func TestConvert_MonoToStereo(t *testing.T) {
	c := monoClip(t, 44100, 10, 1234)
	got := Convert(c, Format{SampleRate: 44100, Channels: 2})
	if got.Channels != 2 {
		t.Fatalf("channels = %d, want 2", got.Channels)
	}
	if got.Samples() != 10 {
		t.Errorf("frames = %d, want 10", got.Samples())
	}
	if l, r := sampleAt(got.Data, 0), sampleAt(got.Data, 1); l != 1234 || r != 1234 {
		t.Errorf("first frame = (%d, %d), want (1234, 1234)", l, r)
	}
}

func TestConvert_Resample(t *testing.T) {
	c := monoClip(t, 24000, 24000, 1000) // 1 second at 24kHz
	got := Convert(c, Format{SampleRate: 44100, Channels: 1})
	if got.SampleRate != 44100 {
		t.Fatalf("rate = %d, want 44100", got.SampleRate)
	}
	if got.Samples() != 44100 {
		t.Errorf("samples = %d, want 44100 (duration preserved)", got.Samples())
	}
}

func TestConvert_NoopReturnsSameClip(t *testing.T) {
	c := monoClip(t, 44100, 10, 0)
	if got := Convert(c, c.Format()); got != c {
		t.Error("matching format should return the input clip unchanged")
	}
}

func TestSilence(t *testing.T) {
	c := Silence(250*time.Millisecond, Format{SampleRate: 1000, Channels: 2})
	if c.Samples() != 250 {
		t.Errorf("frames = %d, want 250", c.Samples())
	}
	if c.Duration() != 250*time.Millisecond {
		t.Errorf("duration = %v, want 250ms", c.Duration())
	}
}
