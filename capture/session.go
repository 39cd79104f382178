package capture

import (
	"github.com/google/uuid"
)

// Default frame geometry requested from capture sources. Frames wider than
// TargetWidth are scaled down before encoding to keep OCR payloads small.
const (
	TargetWidth   = 1080
	TargetHeight  = 2400
	TargetDensity = 420
)

// Session is one ephemeral capture: created from a granted authorization,
// destroyed as soon as a frame is acquired or acquisition fails.
type Session struct {
	ID      string
	Source  Source
	Width   int
	Height  int
	Density int
}

// NewSession creates a capture session around the given source
func NewSession(src Source) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Source:  src,
		Width:   TargetWidth,
		Height:  TargetHeight,
		Density: TargetDensity,
	}
}
