package kvstore

import "github.com/pkg/errors"

var (
	// ErrKeyNotFound is returned by CompareAndSwap when key has no value.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCasMismatch is returned by CompareAndSwap when the stored value
	// differs from the caller-supplied `from`.
	ErrCasMismatch = errors.New("compare-and-swap: from mismatch")
)
