package advisor

import "context"

// Generator produces advisory text for a prompt using an external text-generation service.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
