package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

// DecodeFunc turns an input file into PCM.
type DecodeFunc func(data []byte) (*PCM, error)

// DecodeWAV decodes a RIFF/WAVE PCM file, the format the recorder writes.
func DecodeWAV(data []byte) (*PCM, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, errors.New("WAV file has no channel or sample rate information")
	}

	depth := int(dec.BitDepth)
	if depth <= 0 {
		depth = buf.SourceBitDepth
	}
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", depth)
	}
	scale := float32(int64(1) << (depth - 1))

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if depth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[i] = float32(v) / scale
	}
	return &PCM{
		Samples:    samples,
		Channels:   buf.Format.NumChannels,
		SampleRate: buf.Format.SampleRate,
	}, nil
}
