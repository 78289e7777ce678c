package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV container support for the pipeline's input/output boundary. Only
// uncompressed 16-bit PCM is handled; compressed formats are the business of
// the external services that produce them.

var (
	// ErrNotWAV is returned by DecodeWAV when the input is not a RIFF/WAVE
	// stream.
	ErrNotWAV = errors.New("audio: not a WAV stream")

	// ErrUnsupportedWAV is returned by DecodeWAV for WAV streams that are
	// not 16-bit PCM.
	ErrUnsupportedWAV = errors.New("audio: unsupported WAV encoding")
)

// EncodeWAV serialises the clip into a RIFF/WAVE byte stream with a standard
// 16-bit PCM fmt chunk.
func EncodeWAV(c *Clip) ([]byte, error) {
	if c == nil || c.SampleRate <= 0 || c.Channels <= 0 {
		return nil, fmt.Errorf("audio: encode wav: invalid clip format")
	}

	var buf bytes.Buffer
	dataLen := len(c.Data)
	byteRate := c.SampleRate * c.Channels * 2
	blockAlign := c.Channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(c.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(c.Data)

	return buf.Bytes(), nil
}

// DecodeWAV parses a RIFF/WAVE byte stream into a Clip. Chunks other than
// "fmt " and "data" are skipped. Only 16-bit PCM streams are accepted.
func DecodeWAV(b []byte) (*Clip, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var f Format
	var data []byte
	haveFmt := false

	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(b) {
			return nil, fmt.Errorf("audio: decode wav: truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("audio: decode wav: short fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(b[body : body+2])
			channels := binary.LittleEndian.Uint16(b[body+2 : body+4])
			sampleRate := binary.LittleEndian.Uint32(b[body+4 : body+8])
			bitsPerSample := binary.LittleEndian.Uint16(b[body+14 : body+16])
			if audioFormat != 1 || bitsPerSample != 16 {
				return nil, fmt.Errorf("%w: format=%d bits=%d", ErrUnsupportedWAV, audioFormat, bitsPerSample)
			}
			f = Format{SampleRate: int(sampleRate), Channels: int(channels)}
			haveFmt = true

		case "data":
			data = b[body : body+size]
		}

		// Chunks are word-aligned.
		pos = body + size + size%2
	}

	if !haveFmt || data == nil {
		return nil, fmt.Errorf("audio: decode wav: missing fmt or data chunk")
	}

	out := make([]byte, len(data))
	copy(out, data)
	return NewClip(out, f), nil
}
