package transport

import (
	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
)

// MaelstromBus adapts a *maelstrom.Node to the Bus interface. It is the
// production transport: a point-to-point datagram bus with Maelstrom's
// own newline-delimited JSON framing and msg_id bookkeeping, kept out of
// the raft/gateway packages' concerns per spec.md §1.
type MaelstromBus struct {
	node *maelstrom.Node
}

// NewMaelstromBus wraps node.
func NewMaelstromBus(node *maelstrom.Node) *MaelstromBus {
	return &MaelstromBus{node: node}
}

// Node exposes the underlying *maelstrom.Node for handler registration
// and Run(), which stay in cmd/raftkv-node (the process entry point,
// also out of scope per spec.md §1).
func (b *MaelstromBus) Node() *maelstrom.Node {
	return b.node
}

func (b *MaelstromBus) ID() string {
	return b.node.ID()
}

func (b *MaelstromBus) NodeIDs() []string {
	return b.node.NodeIDs()
}

func (b *MaelstromBus) Send(dest string, body any) error {
	return b.node.Send(dest, body)
}

func (b *MaelstromBus) Reply(msg Message, body any) error {
	return b.node.Reply(toMaelstromMessage(msg), body)
}

func toMaelstromMessage(msg Message) maelstrom.Message {
	return maelstrom.Message{
		Src:  msg.Src,
		Dest: msg.Dest,
		Body: msg.Body,
	}
}

// FromMaelstromMessage converts an inbound maelstrom.Message into the
// transport-neutral Message the rest of the system deals in.
func FromMaelstromMessage(msg maelstrom.Message) Message {
	return Message{
		Src:  msg.Src,
		Dest: msg.Dest,
		Body: msg.Body,
	}
}
