package device

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"Chirpnet/pkg/modem"
)

// WavSink records played PCM into a 16-bit mono WAV stream.
type WavSink struct {
	format  *audio.Format
	encoder *wav.Encoder
}

func NewWavSink(w io.WriteSeeker, sampleRate int) *WavSink {
	return &WavSink{
		format:  &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		encoder: wav.NewEncoder(w, sampleRate, 16, 1, 1),
	}
}

// Play appends little-endian 16-bit PCM.
func (s *WavSink) Play(ctx context.Context, pcm []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := make([]int, len(pcm)/2)
	for i, v := range modem.PCM16ToInt32(pcm) {
		data[i] = int(v >> 16)
	}
	return s.write(data)
}

// Silence appends d of silence.
func (s *WavSink) Silence(d time.Duration) error {
	return s.write(make([]int, int(d.Seconds()*float64(s.format.SampleRate))))
}

func (s *WavSink) write(data []int) error {
	buf := &audio.IntBuffer{Format: s.format, Data: data, SourceBitDepth: 16}
	if err := s.encoder.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

// Close finalizes the WAV header. It does not close the underlying writer.
func (s *WavSink) Close() error {
	return s.encoder.Close()
}

// ReadWav decodes the first channel of a PCM WAV stream to samples in
// [-1, 1) and returns them with the sample rate.
func ReadWav(r io.ReadSeeker) ([]float64, int, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file")
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read wav: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := float64(int64(1) << (depth - 1))
	samples := make([]float64, len(buf.Data)/channels)
	for i := range samples {
		samples[i] = float64(buf.Data[i*channels]) / scale
	}
	return samples, buf.Format.SampleRate, nil
}
