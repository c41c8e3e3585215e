// Package generator is the client side of the external text/image generation
// service. Callers treat it as a black box that either returns content or fails.
package generator

import (
	"context"
	"errors"
)

// Kind selects the type of content to generate.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// ErrEmptyPrompt is returned for blank prompts.
var ErrEmptyPrompt = errors.New("generator: empty prompt")

// Request is a single generation call.
type Request struct {
	Kind   Kind
	Prompt string
}

// Result carries the generated content. Exactly one of Text or ImageURL is set.
type Result struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Generator produces content for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, req Request) (Result, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
