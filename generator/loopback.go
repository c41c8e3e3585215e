package generator

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

var _ Generator = (*Loopback)(nil)

// Loopback returns deterministic content without calling any service. It is
// used when no API key is configured.
type Loopback struct{}

// NewLoopback creates a Loopback generator.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// Generate echoes the last line of the prompt, or derives a stable image URL from it.
func (l *Loopback) Generate(_ context.Context, req Request) (Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Result{}, ErrEmptyPrompt
	}
	switch req.Kind {
	case KindImage:
		sum := sha1.Sum([]byte(prompt))
		return Result{
			ImageURL: "https://picsum.photos/seed/" + hex.EncodeToString(sum[:8]) + "/800",
			Model:    "loopback",
		}, nil
	case KindText, "":
		lines := strings.Split(prompt, "\n")
		return Result{Text: "[loopback] " + strings.TrimSpace(lines[len(lines)-1]), Model: "loopback"}, nil
	default:
		return Result{}, fmt.Errorf("generator: unsupported kind %q", req.Kind)
	}
}
