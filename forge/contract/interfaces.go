package contract

import "context"

// TextBackend is the generation capability workers call. Generate carries
// the model/temperature configuration of the concrete client; a hard
// timeout is applied by the caller through ctx.
type TextBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) bool
}
