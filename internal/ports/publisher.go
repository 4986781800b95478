package ports

import "context"

// Publisher emits record change events for downstream consumers.
type Publisher interface {
	PublishRaw(ctx context.Context, subject string, payload []byte) error
}
