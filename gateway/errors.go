package gateway

import (
	"github.com/pkg/errors"

	"github.com/raftkv/gateway/message"
)

var (
	// ErrKeyNotFound is the sentinel behind a quorum or leaseholder read
	// that resolves to no stored value.
	ErrKeyNotFound = errors.New("key not found")
	// ErrWriteConflict is the sentinel behind a quorum read's
	// has_conflict outcome (spec.md §4.2.1).
	ErrWriteConflict = errors.New("write conflict for key")
	// ErrOutdatedLeaseholder is the sentinel behind a failed
	// leaseholder_read round (spec.md §4.2.2).
	ErrOutdatedLeaseholder = errors.New("outdated leaseholder")
)

// errorBodyFor reconstructs the client-visible ErrorBody (spec.md §6's
// error codes 11/20) from one of this package's sentinels — the
// boundary where a gateway-internal read outcome becomes a wire-level
// reply.
func errorBodyFor(err error) message.ErrorBody {
	if errors.Is(err, ErrKeyNotFound) {
		return message.ErrorBody{Type: message.TypeError, Code: message.CodeKeyNotFound, Text: err.Error()}
	}
	return message.ErrorBody{Type: message.TypeError, Code: message.CodeNotLeaderOrConflict, Text: err.Error()}
}
