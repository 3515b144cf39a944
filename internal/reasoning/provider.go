// Package reasoning provides the external natural-language reasoning
// provider abstraction. A provider is an opaque function from a prompt to raw
// text that is expected, but not guaranteed, to parse as structured JSON; any
// failure is absorbed by the engine's deterministic fallback.
package reasoning

import "context"

// Provider completes a prompt into raw text.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
