package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// BlockSize is the number of samples handed to the encoder per call. MP3
// frames hold 1152 samples, so blocks are a multiple of 576.
const BlockSize = 1152

// BlockEncoder is a streaming mono encoder. EncodeBuffer may return an empty
// slice while it buffers; Flush returns whatever trailer remains and
// releases the encoder. Flush must be called once an encoder was opened,
// also after an EncodeBuffer error.
type BlockEncoder interface {
	EncodeBuffer(samples []int16) ([]byte, error)
	Flush() ([]byte, error)
}

// EncoderFactory opens a mono encoder for one recording.
type EncoderFactory func(ctx context.Context, sampleRate, bitrateKbps int) (BlockEncoder, error)

// FFmpegEncoder streams raw s16le PCM into an ffmpeg child process and
// collects MP3 bytes from its stdout.
type FFmpegEncoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	done   chan error

	mu  sync.Mutex
	out bytes.Buffer

	flushOnce sync.Once
	flushErr  error
}

// NewFFmpegFactory returns an EncoderFactory backed by the ffmpeg binary at
// path ("ffmpeg" when empty).
func NewFFmpegFactory(path string) EncoderFactory {
	if path == "" {
		path = "ffmpeg"
	}
	return func(ctx context.Context, sampleRate, bitrateKbps int) (BlockEncoder, error) {
		return StartFFmpeg(ctx, path, sampleRate, bitrateKbps)
	}
}

func StartFFmpeg(ctx context.Context, path string, sampleRate, bitrateKbps int) (*FFmpegEncoder, error) {
	cmd := exec.CommandContext(ctx, path,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-f", "mp3",
		"pipe:1",
	)
	e := &FFmpegEncoder{cmd: cmd, done: make(chan error, 1)}
	cmd.Stderr = &e.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	e.stdin = stdin

	go func() {
		chunk := make([]byte, 32*1024)
		for {
			n, err := stdout.Read(chunk)
			if n > 0 {
				e.mu.Lock()
				e.out.Write(chunk[:n])
				e.mu.Unlock()
			}
			if err != nil {
				if err == io.EOF {
					err = nil
				}
				e.done <- err
				return
			}
		}
	}()
	return e, nil
}

func (e *FFmpegEncoder) EncodeBuffer(samples []int16) ([]byte, error) {
	raw := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}
	if _, err := e.stdin.Write(raw); err != nil {
		return nil, fmt.Errorf("writing to ffmpeg: %w", err)
	}
	return e.drain(), nil
}

// Flush closes ffmpeg's input, waits for the process to exit and returns
// the remaining output. Later calls return the first result's error.
func (e *FFmpegEncoder) Flush() ([]byte, error) {
	e.flushOnce.Do(func() {
		closeErr := e.stdin.Close()
		readErr := <-e.done
		// stderr is only safe to read once Wait has returned
		if err := e.cmd.Wait(); err != nil {
			e.flushErr = fmt.Errorf("ffmpeg: %w (%s)", err, strings.TrimSpace(e.stderr.String()))
			return
		}
		if closeErr != nil {
			e.flushErr = fmt.Errorf("closing ffmpeg input: %w", closeErr)
			return
		}
		if readErr != nil {
			e.flushErr = fmt.Errorf("reading ffmpeg output: %w", readErr)
		}
	})
	if e.flushErr != nil {
		return nil, e.flushErr
	}
	return e.drain(), nil
}

func (e *FFmpegEncoder) drain() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.out.Len() == 0 {
		return nil
	}
	b := append([]byte(nil), e.out.Bytes()...)
	e.out.Reset()
	return b
}
