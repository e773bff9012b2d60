package gateway

import (
	"time"

	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/raft"
	"github.com/raftkv/gateway/transport"
	"github.com/samber/lo"
)

// quorumReadState tracks one in-flight quorum read (spec.md §3:
// "QuorumReadState{client_req_id, client_id, number_responses,
// most_updated_response}").
type quorumReadState struct {
	origin          transport.Message
	majorityNeeded  int
	numberResponses int
	mostUpdated     message.QuorumReadResponseBody
}

// quorumRead implements spec.md §4.2.1: sample m peers without
// replacement, ask each to snapshot key, seed the state with our own
// local snapshot, and schedule a hard cleanup.
func (g *Gateway) quorumRead(bus transport.Bus, origin transport.Message, node raft.Node, key string) {
	m := ceilHalf(len(g.peerIDs))
	sampled := lo.Samples(g.peerIDs, m)

	reqID := g.nextID()
	for _, peer := range sampled {
		_ = bus.Send(peer, message.QuorumReadBody{
			Type: message.TypeQuorumRead, Key: key, ClientReqID: reqID,
		})
	}

	ts, data, conflict := node.QuorumSnapshot(key)
	g.outstanding[reqID] = &quorumReadState{
		origin:          origin,
		majorityNeeded:  m,
		numberResponses: 1,
		mostUpdated: message.QuorumReadResponseBody{
			Timestamp: ts, Data: data, HasConflict: conflict,
		},
	}

	cleanup := g.cfg.QuorumReadCleanup()
	time.AfterFunc(cleanup, func() {
		_ = bus.Send(g.id, message.DeleteQuorumStateBody{Type: message.TypeDeleteQuorumState, MsgID: reqID})
	})
}

// handleQuorumReadRequest answers a peer gateway's sampled request with
// our own local snapshot (spec.md §4.2.1's build_quorum_read_response,
// delegated to raft.Node.QuorumSnapshot).
func (g *Gateway) handleQuorumReadRequest(bus transport.Bus, node raft.Node, msg transport.Message) {
	body, err := decode[message.QuorumReadBody](msg)
	if err != nil {
		g.logger.Fatal().Err(err).Msg("malformed quorum_read body")
		return
	}
	ts, data, conflict := node.QuorumSnapshot(body.Key)
	reply(bus, msg, message.QuorumReadResponseBody{
		Type: message.TypeQuorumReadResponse, Timestamp: ts, Data: data,
		HasConflict: conflict, ClientReqID: body.ClientReqID,
	})
}

// handleQuorumReadResponse folds one peer's snapshot into the
// outstanding state (spec.md §4.2.1) and, once a majority-plus-own have
// answered, resolves the client's read.
func (g *Gateway) handleQuorumReadResponse(bus transport.Bus, msg transport.Message) {
	body, err := decode[message.QuorumReadResponseBody](msg)
	if err != nil {
		g.logger.Fatal().Err(err).Msg("malformed quorum_read_response body")
		return
	}

	state, ok := g.outstanding[body.ClientReqID]
	if !ok {
		return // already resolved, or cleaned up after a timeout
	}

	state.numberResponses++
	if body.Timestamp > state.mostUpdated.Timestamp {
		state.mostUpdated = body
	}

	if state.numberResponses > state.majorityNeeded {
		delete(g.outstanding, body.ClientReqID)
		g.finishQuorumRead(bus, state)
	}
}

func (g *Gateway) finishQuorumRead(bus transport.Bus, state *quorumReadState) {
	switch {
	case state.mostUpdated.HasConflict:
		reply(bus, state.origin, errorBodyFor(ErrWriteConflict))
	case state.mostUpdated.Data != nil:
		reply(bus, state.origin, message.ReadOkBody{Type: message.TypeReadOk, Value: state.mostUpdated.Data})
	default:
		reply(bus, state.origin, errorBodyFor(ErrKeyNotFound))
	}
}

// handleDeleteQuorumState implements spec.md §4.2.1's hard cleanup: if
// the state is still outstanding when the timer fires, drop it silently
// (no reply — the client is expected to time out and retry).
func (g *Gateway) handleDeleteQuorumState(msg transport.Message) {
	body, err := decode[message.DeleteQuorumStateBody](msg)
	if err != nil {
		g.logger.Fatal().Err(err).Msg("malformed delete_quorum_state body")
		return
	}
	delete(g.outstanding, body.MsgID)
}
