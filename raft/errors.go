package raft

import (
	"github.com/pkg/errors"

	"github.com/raftkv/gateway/kvstore"
	"github.com/raftkv/gateway/message"
)

// ErrNotLeader is the sentinel behind a non-Leader's rejection of a
// client write/cas (spec.md §4.1's "Client-op default"), named after
// the original single-file Server's error of the same name.
var ErrNotLeader = errors.New("not the leader")

// errorBodyFor reconstructs the client-visible ErrorBody (spec.md §6's
// error codes 11/20/22) from a sentinel produced somewhere inside this
// package or kvstore — the boundary where an internal condition has to
// become a wire-level reply.
func errorBodyFor(err error) message.ErrorBody {
	switch {
	case errors.Is(err, kvstore.ErrKeyNotFound):
		return message.ErrorBody{Type: message.TypeError, Code: message.CodeKeyNotFound, Text: err.Error()}
	case errors.Is(err, kvstore.ErrCasMismatch):
		return message.ErrorBody{Type: message.TypeError, Code: message.CodeCasMismatch, Text: err.Error()}
	default:
		return message.ErrorBody{Type: message.TypeError, Code: message.CodeNotLeaderOrConflict, Text: err.Error()}
	}
}
