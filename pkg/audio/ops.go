package audio

import (
	"fmt"
	"time"
)

// Concat joins clips end to end in the given order. Nil and empty clips are
// skipped. All non-empty clips must share the same format; the result is a
// new clip in that format. Concat of no audible input returns an empty clip
// with a zero format.
func Concat(clips ...*Clip) (*Clip, error) {
	var f Format
	total := 0
	for _, c := range clips {
		if c.Empty() {
			continue
		}
		if f.SampleRate == 0 {
			f = c.Format()
		} else if c.Format() != f {
			return nil, fmt.Errorf("audio: concat format mismatch: %s vs %s", c.Format(), f)
		}
		total += len(c.Data)
	}

	data := make([]byte, 0, total)
	for _, c := range clips {
		if c.Empty() {
			continue
		}
		data = append(data, c.Data...)
	}
	return &Clip{Data: data, SampleRate: f.SampleRate, Channels: f.Channels}, nil
}

// Overlay mixes top into base starting at the given offset, returning a new
// clip. Samples are summed with clamping. The result has the length of base;
// any part of top extending past the end of base is dropped. Both clips must
// share the same format.
func Overlay(base, top *Clip, offset time.Duration) (*Clip, error) {
	if base.Empty() {
		return base.Clone(), nil
	}
	if top.Empty() {
		return base.Clone(), nil
	}
	if base.Format() != top.Format() {
		return nil, fmt.Errorf("audio: overlay format mismatch: %s vs %s", top.Format(), base.Format())
	}
	if offset < 0 {
		offset = 0
	}

	out := base.Clone()
	startFrame := int(int64(offset) * int64(base.SampleRate) / int64(time.Second))
	start := startFrame * base.Channels

	baseSamples := len(out.Data) / 2
	topSamples := len(top.Data) / 2
	for i := 0; i < topSamples; i++ {
		j := start + i
		if j >= baseSamples {
			break
		}
		mixed := int32(sampleAt(out.Data, j)) + int32(sampleAt(top.Data, i))
		putSample(out.Data, j, clamp16(mixed))
	}
	return out, nil
}

// Gain scales every sample by factor, clamping to the int16 range. A factor
// of 1.0 returns an identical copy.
func Gain(c *Clip, factor float64) *Clip {
	out := c.Clone()
	if out == nil || factor == 1.0 {
		return out
	}
	samples := len(out.Data) / 2
	for i := 0; i < samples; i++ {
		v := int32(float64(sampleAt(out.Data, i)) * factor)
		putSample(out.Data, i, clamp16(v))
	}
	return out
}

// FadeIn applies a linear gain ramp from silence to full volume over d at the
// start of the clip. A duration longer than the clip ramps across the whole
// clip.
func FadeIn(c *Clip, d time.Duration) *Clip {
	return fade(c, d, true)
}

// FadeOut applies a linear gain ramp from full volume to silence over d at
// the end of the clip.
func FadeOut(c *Clip, d time.Duration) *Clip {
	return fade(c, d, false)
}

func fade(c *Clip, d time.Duration, in bool) *Clip {
	out := c.Clone()
	if out.Empty() || d <= 0 {
		return out
	}

	frames := out.Samples()
	fadeFrames := int(int64(d) * int64(out.SampleRate) / int64(time.Second))
	if fadeFrames > frames {
		fadeFrames = frames
	}
	if fadeFrames == 0 {
		return out
	}

	for i := 0; i < fadeFrames; i++ {
		var factor float64
		var frame int
		if in {
			factor = float64(i) / float64(fadeFrames)
			frame = i
		} else {
			factor = float64(fadeFrames-1-i) / float64(fadeFrames)
			frame = frames - fadeFrames + i
		}
		for ch := 0; ch < out.Channels; ch++ {
			idx := frame*out.Channels + ch
			v := int32(float64(sampleAt(out.Data, idx)) * factor)
			putSample(out.Data, idx, clamp16(v))
		}
	}
	return out
}

// Convert resamples and channel-converts c to the target format. If the clip
// already matches the target, it is returned unchanged (no copy). Conversion
// order: resample first, then channel conversion.
func Convert(c *Clip, target Format) *Clip {
	if c.Empty() || c.Format() == target {
		return c
	}

	pcm := c.Data
	rate := c.SampleRate
	channels := c.Channels

	if rate != target.SampleRate {
		if channels == 1 {
			pcm = resampleMono16(pcm, rate, target.SampleRate)
		} else {
			pcm = resampleStereo16(pcm, rate, target.SampleRate)
		}
		rate = target.SampleRate
	}

	if channels != target.Channels {
		if channels == 1 && target.Channels == 2 {
			pcm = monoToStereo(pcm)
		} else if channels == 2 && target.Channels == 1 {
			pcm = stereoToMono(pcm)
		}
		channels = target.Channels
	}

	return &Clip{Data: pcm, SampleRate: rate, Channels: channels}
}

// monoToStereo duplicates each int16 mono sample into a stereo L+R pair.
func monoToStereo(pcm []byte) []byte {
	out := make([]byte, (len(pcm)/2)*4)
	for i := 0; i+1 < len(pcm); i += 2 {
		lo, hi := pcm[i], pcm[i+1]
		j := i * 2
		out[j] = lo
		out[j+1] = hi
		out[j+2] = lo
		out[j+3] = hi
	}
	return out
}

// stereoToMono averages L+R per stereo frame. Uses int32 arithmetic to
// prevent overflow and clamps to the int16 range.
func stereoToMono(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := range frames {
		l := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		r := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		putSample(out, i, clamp16((l+r)/2))
	}
	return out
}

// resampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using
// linear interpolation.
func resampleMono16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstSamples {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := sampleAt(pcm, srcIdx)
		s1 := s0
		if srcIdx+1 < srcSamples {
			s1 = sampleAt(pcm, srcIdx+1)
		}

		putSample(out, i, int16(float64(s0)*(1-frac)+float64(s1)*frac))
	}
	return out
}

// resampleStereo16 resamples 16-bit stereo PCM from srcRate to dstRate using
// linear interpolation. Each stereo frame is 4 bytes (L+R interleaved).
func resampleStereo16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < 4 {
		return pcm
	}
	srcFrames := len(pcm) / 4
	dstFrames := int(int64(srcFrames) * int64(dstRate) / int64(srcRate))
	if dstFrames == 0 {
		return nil
	}

	out := make([]byte, dstFrames*4)
	ratio := float64(srcRate) / float64(dstRate)

	for i := range dstFrames {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		l0 := sampleAt(pcm, srcIdx*2)
		r0 := sampleAt(pcm, srcIdx*2+1)
		l1, r1 := l0, r0
		if srcIdx+1 < srcFrames {
			l1 = sampleAt(pcm, (srcIdx+1)*2)
			r1 = sampleAt(pcm, (srcIdx+1)*2+1)
		}

		putSample(out, i*2, int16(float64(l0)*(1-frac)+float64(l1)*frac))
		putSample(out, i*2+1, int16(float64(r0)*(1-frac)+float64(r1)*frac))
	}
	return out
}
