// Package message defines the wire envelope and body types exchanged
// between nodes and clients, per spec.md §3 ("Message") and §6
// ("External interfaces"). Field names and JSON tags mirror the spec's
// snake_case wire vocabulary exactly, since peers and the Maelstrom test
// harness on the other side of the transport expect them verbatim.
package message

import (
	"encoding/json"

	"github.com/raftkv/gateway/transport"
)

// Type enumerates the body "type" discriminator used throughout the
// system. Self-addressed control types are listed alongside client and
// internal RPC types; all share the same dispatch path (spec.md §5).
type Type string

const (
	TypeInit   Type = "init"
	TypeInitOk Type = "init_ok"

	TypeRead    Type = "read"
	TypeReadOk  Type = "read_ok"
	TypeWrite   Type = "write"
	TypeWriteOk Type = "write_ok"
	TypeCas     Type = "cas"
	TypeCasOk   Type = "cas_ok"
	TypeError   Type = "error"

	TypeRequestVote         Type = "request_vote"
	TypeRequestVoteResponse Type = "request_vote_response"
	TypeAppendEntries       Type = "append_entries"
	TypeAppendEntriesResp   Type = "append_entries_response"

	TypeQuorumRead          Type = "quorum_read"
	TypeQuorumReadResponse  Type = "quorum_read_response"
	TypeLeaseholderRead     Type = "leaseholder_read"
	TypeLeaseholderReadResp Type = "leaseholder_read_response"
	TypeDeleteQuorumState   Type = "delete_quorum_state"

	TypeTurnCandidate Type = "turn_candidate"
	TypeNewElection   Type = "new_election"
	TypeHeartbeatTick Type = "heartbeat_tick"
)

// Error codes per spec.md §6.
const (
	CodeNotLeaderOrConflict = 11 // not leader / write conflict / outdated leaseholder
	CodeKeyNotFound         = 20
	CodeCasMismatch         = 22
)

// Envelope is an alias for transport.Message: the generic {src, dst,
// body} frame (spec.md §3). It is named separately here so call sites in
// this package don't need to import transport just to read a field name.
type Envelope = transport.Message

// TypeOf peeks at body.type without decoding the rest of the body.
func TypeOf(body json.RawMessage) (Type, error) {
	var t struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(body, &t); err != nil {
		return "", err
	}
	return t.Type, nil
}
