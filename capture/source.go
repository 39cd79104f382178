// Package capture acquires screenshot frames from one-shot sources and
// prepares them for OCR: bounded-retry acquisition, decode, scale, JPEG
// encode.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/snaptodo/snaptodo/log"
)

var (
	// ErrNoFrame means the source has no frame ready yet. Retryable.
	ErrNoFrame = errors.New("no frame ready")
	// ErrNoFrameAvailable means acquisition exhausted its retry budget.
	ErrNoFrameAvailable = errors.New("no frame available after retries")
)

var logger = log.GetLogger("Capture")

// Source produces at most one usable frame and must be closed afterwards.
type Source interface {
	AcquireFrame() (image.Image, error)
	Close() error
}

// Options bound the acquisition loop
type Options struct {
	WarmUp     time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultOptions returns the standard acquisition schedule: a warm-up pause
// for the producer to render its first frame, then evenly spaced retries.
func DefaultOptions() Options {
	return Options{
		WarmUp:     1000 * time.Millisecond,
		MaxRetries: 5,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Acquire waits out the warm-up period, then polls the source until it
// yields a frame or the retry budget is spent. The source is closed before
// returning in every path; frames are one-shot resources and must not be
// held open across the rest of the pipeline.
func Acquire(ctx context.Context, src Source, opts Options) (image.Image, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultOptions().MaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultOptions().RetryDelay
	}

	defer src.Close()

	if opts.WarmUp > 0 {
		if err := sleepCtx(ctx, opts.WarmUp); err != nil {
			return nil, err
		}
	}

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		frame, err := src.AcquireFrame()
		if err == nil {
			logger.Debug().Int("attempt", attempt).Msg("frame acquired")
			return frame, nil
		}
		if !errors.Is(err, ErrNoFrame) {
			return nil, fmt.Errorf("acquire frame: %w", err)
		}

		logger.Debug().Int("attempt", attempt).Msg("frame not ready")
		if attempt == opts.MaxRetries {
			break
		}
		if err := sleepCtx(ctx, opts.RetryDelay); err != nil {
			return nil, err
		}
	}

	return nil, ErrNoFrameAvailable
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MemorySource holds an already decoded frame, used for uploaded screenshots
// and tests. It yields the frame exactly once.
type MemorySource struct {
	frame image.Image
}

// NewMemorySource wraps a decoded frame as a one-shot source
func NewMemorySource(frame image.Image) *MemorySource {
	return &MemorySource{frame: frame}
}

func (s *MemorySource) AcquireFrame() (image.Image, error) {
	if s.frame == nil {
		return nil, ErrNoFrame
	}
	f := s.frame
	s.frame = nil
	return f, nil
}

func (s *MemorySource) Close() error {
	s.frame = nil
	return nil
}

// FileSource polls a fixed path until an external capture agent drops a
// screenshot file there. The file is consumed: deleted after a successful
// decode so a stale frame is never processed twice.
type FileSource struct {
	path string
}

// NewFileSource watches the given drop path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) AcquireFrame() (image.Image, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoFrame
		}
		return nil, fmt.Errorf("read frame file: %w", err)
	}
	if len(data) == 0 {
		// Agent is still writing
		return nil, ErrNoFrame
	}

	img, err := DecodeFrame(data, "")
	if err != nil {
		return nil, fmt.Errorf("decode frame file: %w", err)
	}

	if err := os.Remove(s.path); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("failed to remove consumed frame file")
	}
	return img, nil
}

func (s *FileSource) Close() error {
	return nil
}
