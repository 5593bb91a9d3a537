// Package audio provides the PCM primitives shared by the capture, voice
// detection and synthesis layers: fixed-size frame chunking, int16/float32
// sample conversion and WAV container encoding.
//
// All audio inside the pipeline is 16 kHz, mono, little-endian 16-bit PCM.
// Browsers ship audio in whatever shape their capture stack produces; the
// websocket layer is responsible for converting to this format before frames
// enter the pipeline.
package audio

import "time"

const (
	// SampleRate is the fixed pipeline sample rate in Hz.
	SampleRate = 16000

	// FrameSamples is the number of samples per analysis frame. The voice
	// detector consumes exactly this many samples per inference call.
	FrameSamples = 512

	// FrameBytes is the byte length of one analysis frame as int16 PCM.
	FrameBytes = FrameSamples * 2
)

// Frame is a single fixed-size analysis frame.
type Frame struct {
	// Samples holds exactly FrameSamples normalized samples in [-1, 1].
	Samples []float32

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// DecodePCM16 converts little-endian int16 PCM bytes to normalized float32
// samples. A trailing odd byte is dropped.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := range n {
		s := int16(data[i*2]) | int16(data[i*2+1])<<8
		out[i] = float32(s) / 32768.0
	}
	return out
}

// EncodePCM16 converts normalized float32 samples to little-endian int16 PCM
// bytes. Samples outside [-1, 1] are clamped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		s := int16(f * 32767)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// Chunker accumulates arbitrary-length PCM byte payloads and emits complete
// analysis frames. Browsers do not align their transmit buffers to the frame
// size, so a remainder is carried between calls.
//
// Not safe for concurrent use; create one per audio stream.
type Chunker struct {
	rem     []byte
	elapsed time.Duration
}

// Push appends data and returns every complete frame now available. Incomplete
// trailing samples are buffered until the next call.
func (c *Chunker) Push(data []byte) []Frame {
	c.rem = append(c.rem, data...)

	var frames []Frame
	for len(c.rem) >= FrameBytes {
		frames = append(frames, Frame{
			Samples:   DecodePCM16(c.rem[:FrameBytes]),
			Timestamp: c.elapsed,
		})
		c.rem = c.rem[FrameBytes:]
		c.elapsed += time.Second * FrameSamples / SampleRate
	}
	return frames
}

// Flush returns any buffered partial frame zero-padded to the full frame
// length, or a zero Frame and false if nothing is buffered. The chunker is
// reset afterwards.
func (c *Chunker) Flush() (Frame, bool) {
	if len(c.rem) == 0 {
		return Frame{}, false
	}
	padded := make([]byte, FrameBytes)
	copy(padded, c.rem)
	f := Frame{
		Samples:   DecodePCM16(padded),
		Timestamp: c.elapsed,
	}
	c.rem = nil
	return f, true
}

// Reset discards buffered bytes and rewinds the stream clock.
func (c *Chunker) Reset() {
	c.rem = nil
	c.elapsed = 0
}
