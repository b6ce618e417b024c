package audio

import (
	"fmt"
	"math"
)

const (
	// MaxUploadBytes is the transcription upload ceiling the encoder targets.
	MaxUploadBytes = 25 * 1024 * 1024

	// SafetyMargin leaves 10% of the target for container and frame overhead.
	SafetyMargin = 0.9

	MinBitrateKbps = 32
	MaxBitrateKbps = 320
)

// Ladder is the set of bitrates the MP3 encoder accepts, ascending.
var Ladder = []int{32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320}

type InvalidDurationError struct {
	Seconds float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid audio duration: %v seconds", e.Seconds)
}

// SelectBitrate picks the ladder bitrate (kbps) closest to the rate that
// fits targetBytes into durationSeconds. Ties go to the lower bitrate.
func SelectBitrate(durationSeconds float64, targetBytes int64) (int, error) {
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return 0, &InvalidDurationError{Seconds: durationSeconds}
	}
	bitsPerSecond := float64(targetBytes) * 8 * SafetyMargin / durationSeconds
	kbps := math.Floor(bitsPerSecond / 1000)

	best := Ladder[0]
	for _, candidate := range Ladder[1:] {
		if math.Abs(float64(candidate)-kbps) < math.Abs(float64(best)-kbps) {
			best = candidate
		}
	}
	return min(max(best, MinBitrateKbps), MaxBitrateKbps), nil
}
