package audio

import "time"

// PCM is decoded audio with interleaved samples normalized to [-1, 1].
type PCM struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames is the number of samples per channel.
func (p *PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Seconds is the playback length.
func (p *PCM) Seconds() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

func (p *PCM) Duration() time.Duration {
	return time.Duration(p.Seconds() * float64(time.Second))
}

// Mono averages all channels of each frame.
func (p *PCM) Mono() []float32 {
	if p.Channels <= 1 {
		return p.Samples
	}
	frames := p.Frames()
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < p.Channels; c++ {
			sum += p.Samples[i*p.Channels+c]
		}
		out[i] = sum / float32(p.Channels)
	}
	return out
}

// Quantize converts to signed 16-bit. Samples are clamped to [-1, 1];
// negatives scale by 32768 and positives by 32767 so both ends of the
// int16 range are reachable.
func Quantize(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		if s < 0 {
			out[i] = int16(s * 0x8000)
		} else {
			out[i] = int16(s * 0x7FFF)
		}
	}
	return out
}
