package ports

import (
	"context"

	"dappdir/internal/types"
)

// Revalidator forwards a cache invalidation to the public frontend.
type Revalidator interface {
	Revalidate(ctx context.Context, req types.RevalidateRequest) types.RevalidateResult
	// Configured reports which of the frontend URL and shared secret are present.
	Configured() (frontendURL string, hasSecret bool)
}
