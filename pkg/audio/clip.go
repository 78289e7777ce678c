// Package audio provides the in-memory audio buffer type and the PCM
// operations the timeline assembler is built on: concatenation, overlay
// mixing, fades, gain, resampling and channel conversion, plus WAV
// encode/decode for the container boundary.
//
// All samples are little-endian signed 16-bit PCM. Operations never mutate
// their inputs — every transformation allocates a new Clip.
package audio

import (
	"fmt"
	"time"
)

// Format describes the sample rate and channel count of a PCM buffer.
type Format struct {
	SampleRate int
	Channels   int
}

// String returns a human-readable form, e.g. "44100Hz mono".
func (f Format) String() string {
	ch := "mono"
	if f.Channels == 2 {
		ch = "stereo"
	} else if f.Channels > 2 {
		ch = fmt.Sprintf("%dch", f.Channels)
	}
	return fmt.Sprintf("%dHz %s", f.SampleRate, ch)
}

// Clip is a decoded in-memory audio buffer. Data holds little-endian int16
// PCM samples, interleaved when stereo.
type Clip struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// NewClip returns a Clip over data with the given format. The data slice is
// not copied.
func NewClip(data []byte, f Format) *Clip {
	return &Clip{Data: data, SampleRate: f.SampleRate, Channels: f.Channels}
}

// Format returns the clip's sample format.
func (c *Clip) Format() Format {
	return Format{SampleRate: c.SampleRate, Channels: c.Channels}
}

// Samples returns the number of sample frames in the clip (one frame spans
// all channels).
func (c *Clip) Samples() int {
	if c == nil || c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	return len(c.Data) / (2 * c.Channels)
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Samples()) * time.Second / time.Duration(c.SampleRate)
}

// Empty reports whether the clip holds no audio. A nil clip is empty.
func (c *Clip) Empty() bool {
	return c == nil || len(c.Data) == 0
}

// Clone returns a deep copy of the clip.
func (c *Clip) Clone() *Clip {
	if c == nil {
		return nil
	}
	data := make([]byte, len(c.Data))
	copy(data, c.Data)
	return &Clip{Data: data, SampleRate: c.SampleRate, Channels: c.Channels}
}

// Silence returns a clip of silence with duration d in format f.
func Silence(d time.Duration, f Format) *Clip {
	frames := int(int64(d) * int64(f.SampleRate) / int64(time.Second))
	if frames < 0 {
		frames = 0
	}
	return &Clip{
		Data:       make([]byte, frames*2*f.Channels),
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
	}
}

// sampleAt reads the int16 sample at byte offset i*2.
func sampleAt(data []byte, i int) int16 {
	return int16(data[i*2]) | int16(data[i*2+1])<<8
}

// putSample writes the int16 sample at byte offset i*2.
func putSample(data []byte, i int, s int16) {
	data[i*2] = byte(s)
	data[i*2+1] = byte(s >> 8)
}

// clamp16 clamps a 32-bit intermediate value to the int16 range.
func clamp16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
