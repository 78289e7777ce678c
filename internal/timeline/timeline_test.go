package timeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/podforge/podforge/pkg/audio"
	"github.com/podforge/podforge/pkg/podcast"
)

var testFormat = audio.Format{SampleRate: 1000, Channels: 1}

// tone builds a clip of the given length filled with value, in testFormat.
func tone(d time.Duration, value int16) *audio.Clip {
	frames := int(int64(d) * int64(testFormat.SampleRate) / int64(time.Second))
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = byte(value)
		data[i*2+1] = byte(value >> 8)
	}
	return audio.NewClip(data, testFormat)
}

func testAssembler(opts ...Option) *Assembler {
	base := []Option{WithFormat(testFormat), WithMasterFade(0)}
	return New(append(base, opts...)...)
}

func TestRender_SequentialOrder(t *testing.T) {
	plan := Plan{
		Intro:      tone(100*time.Millisecond, 1),
		Transition: tone(100*time.Millisecond, 2),
		Outro:      tone(100*time.Millisecond, 3),
		Sections: []SectionAudio{
			{Speech: tone(100*time.Millisecond, 10), Effect: tone(100*time.Millisecond, 20)},
			{Speech: tone(100*time.Millisecond, 11), Effect: tone(100*time.Millisecond, 21)},
		},
	}

	clip, err := testAssembler().Render(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// intro, fx1, speech1, transition, fx2, speech2, outro = 7 pieces.
	if want := 700 * time.Millisecond; clip.Duration() != want {
		t.Fatalf("duration = %v, want %v", clip.Duration(), want)
	}

	wantOrder := []int16{1, 20, 10, 2, 21, 11, 3}
	for i, want := range wantOrder {
		frame := i*100 + 50 // sample mid-piece
		got := int16(clip.Data[frame*2]) | int16(clip.Data[frame*2+1])<<8
		if got != want {
			t.Errorf("piece %d value = %d, want %d", i, got, want)
		}
	}
}

func TestRender_AbsentSlotsSkipSilently(t *testing.T) {
	speechOnly := Plan{
		Sections: []SectionAudio{
			{Speech: tone(200*time.Millisecond, 10)},
			{Speech: tone(200*time.Millisecond, 11)},
		},
	}
	withNils := Plan{
		Intro:      nil,
		Transition: nil,
		Outro:      nil,
		Sections: []SectionAudio{
			{Speech: tone(200*time.Millisecond, 10), Effect: nil},
			{Speech: tone(200*time.Millisecond, 11), Effect: &audio.Clip{}},
		},
	}

	a := testAssembler()
	got1, err := a.Render(context.Background(), speechOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got2, err := a.Render(context.Background(), withNils)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got1.Data, got2.Data) {
		t.Error("absent effect slots must render identically to a plan without effects")
	}
}

func TestRender_EmptyPlanFails(t *testing.T) {
	_, err := testAssembler().Render(context.Background(), Plan{})
	if err == nil {
		t.Fatal("expected error for plan without audio")
	}
	var audErr *podcast.AudioError
	if !errors.As(err, &audErr) {
		t.Fatalf("err = %v, want AudioError", err)
	}
	if audErr.Stage != podcast.StageTimeline {
		t.Errorf("stage = %q, want timeline", audErr.Stage)
	}
}

func TestRender_UnknownStrategy(t *testing.T) {
	plan := Plan{
		Strategy: Strategy("shuffle"),
		Sections: []SectionAudio{{Speech: tone(100*time.Millisecond, 1)}},
	}
	if _, err := testAssembler().Render(context.Background(), plan); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestRender_MasterFades(t *testing.T) {
	plan := Plan{
		Sections: []SectionAudio{{Speech: tone(time.Second, 10000)}},
	}
	a := New(WithFormat(testFormat), WithMasterFade(200*time.Millisecond))

	clip, err := a.Render(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := int16(clip.Data[0]) | int16(clip.Data[1])<<8
	if first != 0 {
		t.Errorf("first sample = %d, want 0 (fade-in)", first)
	}
	last := len(clip.Data)/2 - 1
	lastV := int16(clip.Data[last*2]) | int16(clip.Data[last*2+1])<<8
	if lastV != 0 {
		t.Errorf("last sample = %d, want 0 (fade-out)", lastV)
	}
	mid := clip.Samples() / 2
	midV := int16(clip.Data[mid*2]) | int16(clip.Data[mid*2+1])<<8
	if midV != 10000 {
		t.Errorf("mid sample = %d, want untouched 10000", midV)
	}
}

func TestRender_ConvertsInputFormats(t *testing.T) {
	// Speech at 24kHz mono, effect at 1kHz: both must land in the output
	// format cleanly.
	speech := audio.Silence(500*time.Millisecond, audio.Format{SampleRate: 24000, Channels: 1})
	plan := Plan{
		Sections: []SectionAudio{{Speech: speech, Effect: tone(100*time.Millisecond, 5)}},
	}

	clip, err := testAssembler().Render(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.Format() != testFormat {
		t.Errorf("format = %v, want %v", clip.Format(), testFormat)
	}
	if want := 600 * time.Millisecond; clip.Duration() != want {
		t.Errorf("duration = %v, want %v", clip.Duration(), want)
	}
}

func TestRender_OverlayKeepsSpeechLength(t *testing.T) {
	plan := Plan{
		Strategy: StrategyOverlay,
		Intro:    tone(100*time.Millisecond, 1),
		Sections: []SectionAudio{
			{Speech: tone(400*time.Millisecond, 100), Effect: tone(50*time.Millisecond, 50)},
			{Speech: tone(400*time.Millisecond, 100), Effect: tone(50*time.Millisecond, 50)},
		},
	}

	clip, err := testAssembler().Render(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Overlay never extends the track: intro + speech only.
	if want := 900 * time.Millisecond; clip.Duration() != want {
		t.Fatalf("duration = %v, want %v", clip.Duration(), want)
	}

	// Somewhere past the intro the effects are mixed on top of speech.
	mixed := 0
	for i := 100; i < clip.Samples(); i++ {
		v := int16(clip.Data[i*2]) | int16(clip.Data[i*2+1])<<8
		if v == 150 {
			mixed++
		}
	}
	if mixed == 0 {
		t.Error("expected mixed samples where effects overlay speech")
	}
}

func TestEncode_ProducesWAV(t *testing.T) {
	plan := Plan{Sections: []SectionAudio{{Speech: tone(100*time.Millisecond, 3)}}}

	b, err := testAssembler().Encode(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, err := audio.DecodeWAV(b)
	if err != nil {
		t.Fatalf("output is not decodable WAV: %v", err)
	}
	if decoded.Format() != testFormat {
		t.Errorf("format = %v, want %v", decoded.Format(), testFormat)
	}
}

func TestWriteFile(t *testing.T) {
	plan := Plan{Sections: []SectionAudio{{Speech: tone(100*time.Millisecond, 3)}}}
	path := filepath.Join(t.TempDir(), "episode.wav")

	b, err := testAssembler().WriteFile(context.Background(), plan, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(b, onDisk) {
		t.Error("returned bytes differ from file contents")
	}
}
