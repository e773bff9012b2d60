package gateway

import (
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/raft"
	"github.com/raftkv/gateway/transport"
)

// pendingLeaseholderRead tracks one outstanding leaseholder_read sent on
// behalf of a client (spec.md §4.2.2). remaining counts unanswered
// targets; once it reaches zero with no success, the read fails.
type pendingLeaseholderRead struct {
	origin    transport.Message
	remaining int
	resolved  bool
}

// leaseholderRead implements spec.md §4.2.2 together with SPEC_FULL.md
// §4.1.4's resolution of the open leaseholder-discovery question: prefer
// the peer most recently observed acting as leader; if none has been
// observed yet, broadcast to every peer and take the first success
// (§9's option (b) as a fallback for option (a)).
func (g *Gateway) leaseholderRead(bus transport.Bus, origin transport.Message, node raft.Node, key string) {
	targets := g.peerIDs
	if hint := node.LeaderHint(); hint != "" {
		targets = []string{hint}
	}
	if len(targets) == 0 {
		reply(bus, origin, errorBodyFor(ErrOutdatedLeaseholder))
		return
	}

	reqID := g.nextID()
	g.pendingLeaseholder[reqID] = &pendingLeaseholderRead{origin: origin, remaining: len(targets)}
	for _, peer := range targets {
		_ = bus.Send(peer, message.LeaseholderReadBody{
			Type: message.TypeLeaseholderRead, Key: key, ClientID: origin.Src, InReplyTo: reqID,
		})
	}
}

// handleLeaseholderReadRequest answers a peer's belief that we are the
// leaseholder: serve the value if we are currently Leader, else report
// failure (spec.md §4.2.2).
func (g *Gateway) handleLeaseholderReadRequest(bus transport.Bus, node raft.Node, msg transport.Message) {
	body, err := decode[message.LeaseholderReadBody](msg)
	if err != nil {
		g.logger.Fatal().Err(err).Msg("malformed leaseholder_read body")
		return
	}

	success := node.Role() == raft.RoleLeader
	var value any
	if success {
		value, _ = node.LocalRead(body.Key)
	}
	reply(bus, msg, message.LeaseholderReadResponseBody{
		Type: message.TypeLeaseholderReadResp, Success: success, Value: value,
		ClientID: body.ClientID, InReplyTo: body.InReplyTo,
	})
}

// handleLeaseholderReadResponse resolves the client's read on the first
// success, or on exhausting every target without one (spec.md §4.2.2:
// "error 11 outdated leaseholder on failure").
func (g *Gateway) handleLeaseholderReadResponse(bus transport.Bus, msg transport.Message) {
	body, err := decode[message.LeaseholderReadResponseBody](msg)
	if err != nil {
		g.logger.Fatal().Err(err).Msg("malformed leaseholder_read_response body")
		return
	}

	pending, ok := g.pendingLeaseholder[body.InReplyTo]
	if !ok || pending.resolved {
		return
	}

	if body.Success {
		pending.resolved = true
		delete(g.pendingLeaseholder, body.InReplyTo)
		if body.Value != nil {
			reply(bus, pending.origin, message.ReadOkBody{Type: message.TypeReadOk, Value: body.Value})
		} else {
			reply(bus, pending.origin, errorBodyFor(ErrKeyNotFound))
		}
		return
	}

	pending.remaining--
	if pending.remaining <= 0 {
		delete(g.pendingLeaseholder, body.InReplyTo)
		reply(bus, pending.origin, errorBodyFor(ErrOutdatedLeaseholder))
	}
}
