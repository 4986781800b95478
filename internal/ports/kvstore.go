package ports

import "context"

// KVStore is the schemaless key-value backend the directory is built on.
// Each operation is atomic for its own key only; nothing is transactional across keys.
// Implementations MUST wrap I/O failures with types.ErrDataStoreAccess.
type KVStore interface {
	// Get returns the value stored under key. A missing key is (nil, false, nil), not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	SetAdd(ctx context.Context, setKey, member string) error

	// SetRemove removes member from the set. Removing a missing member is not an error.
	SetRemove(ctx context.Context, setKey, member string) error

	// SetMembers returns all members of the set in no particular order.
	SetMembers(ctx context.Context, setKey string) ([]string, error)

	Close() error
}
