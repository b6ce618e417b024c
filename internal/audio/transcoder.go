package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"daily-memo-go/internal/apperr"
	"daily-memo-go/internal/logger"
	"daily-memo-go/internal/metrics"
	"daily-memo-go/internal/types"
	"github.com/sirupsen/logrus"
)

// OutputExt is the extension of transcoded files.
const OutputExt = ".mp3"

// BinaryStore persists transcoded audio.
type BinaryStore interface {
	CreateBinary(path string, data []byte) error
}

// Transcoder produces a mono MP3 of each recording sized to fit under
// TargetBytes and stores it under Folder.
type Transcoder struct {
	Store       BinaryStore
	Folder      string
	TargetBytes int64
	Decode      DecodeFunc
	NewEncoder  EncoderFactory
	Log         *logger.Logger
	Metrics     *metrics.Metrics
}

func NewTranscoder(store BinaryStore, folder string, encoders EncoderFactory, log *logger.Logger, m *metrics.Metrics) *Transcoder {
	return &Transcoder{
		Store:       store,
		Folder:      folder,
		TargetBytes: MaxUploadBytes,
		Decode:      DecodeWAV,
		NewEncoder:  encoders,
		Log:         log.WithComponent("transcoder"),
		Metrics:     m,
	}
}

// Transcode writes one file per recording. Any failure comes back as an
// *apperr.TranscodeError naming the recording.
func (t *Transcoder) Transcode(ctx context.Context, rec types.Recording) (types.TranscodedRecording, error) {
	start := time.Now()
	out, err := t.transcode(ctx, rec)
	if err != nil {
		t.Metrics.ObserveTranscode(metrics.OutcomeFailed, time.Since(start), 0)
		return types.TranscodedRecording{}, &apperr.TranscodeError{Filename: rec.Name, Err: err}
	}
	t.Metrics.ObserveTranscode(metrics.OutcomeSuccess, time.Since(start), out.BitrateKbps)
	t.Log.WithFields(logrus.Fields{
		"recording":    rec.Name,
		"path":         out.Path,
		"bitrate_kbps": out.BitrateKbps,
		"duration_s":   out.Duration.Seconds(),
		"bytes":        len(out.Data),
	}).Info("recording transcoded")
	return out, nil
}

func (t *Transcoder) transcode(ctx context.Context, rec types.Recording) (types.TranscodedRecording, error) {
	decode := t.Decode
	if decode == nil {
		decode = DecodeWAV
	}
	if t.NewEncoder == nil {
		return types.TranscodedRecording{}, fmt.Errorf("no encoder configured")
	}
	target := t.TargetBytes
	if target <= 0 {
		target = MaxUploadBytes
	}

	pcm, err := decode(rec.Data)
	if err != nil {
		return types.TranscodedRecording{}, fmt.Errorf("decode: %w", err)
	}
	bitrate, err := SelectBitrate(pcm.Seconds(), target)
	if err != nil {
		return types.TranscodedRecording{}, err
	}
	t.Log.WithFields(logrus.Fields{
		"recording":    rec.Name,
		"duration_s":   pcm.Seconds(),
		"channels":     pcm.Channels,
		"bitrate_kbps": bitrate,
	}).Debug("starting conversion")

	data, err := t.encode(ctx, Quantize(pcm.Mono()), pcm.SampleRate, bitrate)
	if err != nil {
		return types.TranscodedRecording{}, fmt.Errorf("encode: %w", err)
	}

	filename := rec.Stem() + OutputExt
	outPath := path.Join(t.Folder, filename)
	if err := t.Store.CreateBinary(outPath, data); err != nil {
		return types.TranscodedRecording{}, fmt.Errorf("store %s: %w", outPath, err)
	}
	return types.TranscodedRecording{
		Source:      rec,
		Filename:    filename,
		Path:        outPath,
		Data:        data,
		BitrateKbps: bitrate,
		Duration:    pcm.Duration(),
	}, nil
}

func (t *Transcoder) encode(ctx context.Context, samples []int16, sampleRate, bitrate int) ([]byte, error) {
	enc, err := t.NewEncoder(ctx, sampleRate, bitrate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for i := 0; i < len(samples); i += BlockSize {
		if err := ctx.Err(); err != nil {
			_, _ = enc.Flush()
			return nil, err
		}
		chunk, err := enc.EncodeBuffer(samples[i:min(i+BlockSize, len(samples))])
		if err != nil {
			// Flush releases the encoder and usually explains the failure.
			_, ferr := enc.Flush()
			return nil, errors.Join(err, ferr)
		}
		buf.Write(chunk)
	}
	tail, err := enc.Flush()
	if err != nil {
		return nil, err
	}
	buf.Write(tail)
	return buf.Bytes(), nil
}
