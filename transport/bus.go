// Package transport adapts the Maelstrom-style framed JSON bus named as
// an external collaborator in spec.md §1 to the narrow Bus interface the
// raft and gateway packages depend on. Production wiring uses
// MaelstromBus, backed by github.com/jepsen-io/maelstrom/demo/go — the
// literal prior art for this spec's transport (see SPEC_FULL.md §3).
// Tests use FakeBus, an in-process double with no network or framing,
// following the teacher's own nonresponsivePeer/approvingPeer mock-peer
// pattern in server_test.go.
package transport

import "encoding/json"

// Message mirrors the wire envelope of spec.md §3: {src, dst, body}.
type Message struct {
	Src  string          `json:"src"`
	Dest string          `json:"dest"`
	Body json.RawMessage `json:"body"`
}

// Handler processes one inbound Message. It never blocks beyond
// constant-time bookkeeping (spec.md §5: "Suspension points: only
// outbound send and inbound receive").
type Handler func(Message) error

// Bus is the minimal identity/send/reply surface the raft and gateway
// packages need, independent of whatever framing or retry policy the
// concrete transport implements (spec.md §6: "send(src, dst, …fields)",
// "reply(msg, …fields)").
type Bus interface {
	// ID returns this node's own identifier.
	ID() string
	// NodeIDs returns every node in the cluster, including self.
	NodeIDs() []string
	// Send emits a fire-and-forget message to dest.
	Send(dest string, body any) error
	// Reply emits a message to msg.Src, echoing msg's msg_id as
	// in_reply_to (spec.md §6).
	Reply(msg Message, body any) error
}
