// Package gateway implements spec.md §4.2: the per-node read router that
// wraps a Raft replica (package raft). Writes and compare-and-swap pass
// straight through to Raft; reads are intercepted and served by one of
// two paths chosen probabilistically to balance leader load.
package gateway

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/raftkv/gateway/config"
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/raft"
	"github.com/raftkv/gateway/transport"
	"github.com/rs/zerolog"
)

// Gateway owns a raft.Node and every piece of gateway-only state: the
// cached dispatch fraction and the two kinds of in-flight read
// bookkeeping (spec.md §3: "Gateway state").
type Gateway struct {
	node raft.Node

	id      string
	peerIDs []string
	cfg     config.Config
	logger  zerolog.Logger

	fraction float64

	outstanding        map[string]*quorumReadState
	pendingLeaseholder map[string]*pendingLeaseholderRead
}

// New wraps node, an already-bootstrapped Follower (spec.md §4.2: "wraps
// a Raft node (initially a Follower)"). peerIDs excludes id.
func New(node raft.Node, id string, peerIDs []string, cfg config.Config, logger zerolog.Logger) *Gateway {
	n := len(peerIDs) + 1
	return &Gateway{
		node:               node,
		id:                 id,
		peerIDs:            peerIDs,
		cfg:                cfg,
		logger:             logger,
		fraction:           quorumReadFraction(n),
		outstanding:        make(map[string]*quorumReadState),
		pendingLeaseholder: make(map[string]*pendingLeaseholderRead),
	}
}

// Role exposes the wrapped Raft node's role, primarily for tests and
// diagnostics.
func (g *Gateway) Role() raft.Role { return g.node.Role() }

// Stop cancels the wrapped Raft node's timers.
func (g *Gateway) Stop() { g.node.Stop() }

// nextID mints a correlation id for an outstanding quorum-read or
// leaseholder-read request. A UUID, rather than a per-node counter, means
// two nodes that independently bootstrap their own sequences never
// collide if a stale response is ever replayed back to the wrong
// gateway (see DESIGN.md).
func (g *Gateway) nextID() string {
	return uuid.NewString()
}

// Handle routes one inbound message per spec.md §4.2's dispatch table.
func (g *Gateway) Handle(bus transport.Bus, msg transport.Message) {
	t, err := message.TypeOf(msg.Body)
	if err != nil {
		g.logger.Fatal().Err(err).Msg("malformed message: missing type field")
		return
	}

	switch t {
	case message.TypeRead:
		g.handleRead(bus, msg)

	case message.TypeWrite, message.TypeCas:
		g.node = g.node.Handle(bus, msg)

	case message.TypeQuorumRead:
		g.handleQuorumReadRequest(bus, g.node, msg)

	case message.TypeQuorumReadResponse:
		g.handleQuorumReadResponse(bus, msg)

	case message.TypeLeaseholderRead:
		g.handleLeaseholderReadRequest(bus, g.node, msg)

	case message.TypeLeaseholderReadResp:
		g.handleLeaseholderReadResponse(bus, msg)

	case message.TypeDeleteQuorumState:
		g.handleDeleteQuorumState(msg)

	default:
		g.node = g.node.Handle(bus, msg)
	}
}

// handleRead implements spec.md §4.2's read dispatch: serve locally if
// self is the leaseholder (current Leader); otherwise draw uniformly
// and pick quorum-read or leaseholder-read by quorumReadFraction.
func (g *Gateway) handleRead(bus transport.Bus, msg transport.Message) {
	body, err := decode[message.ReadBody](msg)
	if err != nil {
		g.logger.Fatal().Err(err).Msg("malformed read body")
		return
	}

	if g.node.Role() == raft.RoleLeader {
		value, found := g.node.LocalRead(body.Key)
		if !found {
			reply(bus, msg, errorBodyFor(ErrKeyNotFound))
			return
		}
		reply(bus, msg, message.ReadOkBody{Type: message.TypeReadOk, Value: value})
		return
	}

	if rand.Float64() <= g.fraction {
		g.quorumRead(bus, msg, g.node, body.Key)
	} else {
		g.leaseholderRead(bus, msg, g.node, body.Key)
	}
}
