package raft

import (
	"encoding/json"

	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/transport"
)

// decode unmarshals msg.Body into a fresh T. A decode failure here is a
// transport/protocol bug (malformed or missing fields), which spec.md
// §7 says should be fatal rather than silently ignored — callers that
// reach this path only do so after TypeOf has already identified the
// message as one they're prepared to handle, so a decode error means
// the peer sent a shape we don't understand for that type.
func decode[T any](msg transport.Message) (T, error) {
	var body T
	err := json.Unmarshal(msg.Body, &body)
	return body, err
}

// decodeInto unmarshals raw JSON into an existing value, for call sites
// that already have a json.RawMessage rather than a transport.Message.
func decodeInto(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}

func reply(bus transport.Bus, msg transport.Message, body any) {
	// A send failure here is a transport concern (spec.md §1); the Raft
	// core can't do anything useful except drop it, same as the teacher
	// treats a write to a disconnected peer.
	_ = bus.Reply(msg, body)
}

// termOf peeks at a peer/self message's body.term, returning 0 for
// bodies that carry none (client and self-addressed control messages
// never have a term field, and must never be mistaken for one —
// spec.md §9: "Messages without term fields… must be recognized as
// such before the… preamble").
func termOf(body json.RawMessage) int {
	var t struct {
		Term int `json:"term"`
	}
	_ = json.Unmarshal(body, &t)
	return t.Term
}

// hasTermField distinguishes RPCs that legitimately carry a zero term
// from bodies that have no term field at all, by type: only the four
// Raft RPC types do.
func hasTermField(t message.Type) bool {
	switch t {
	case message.TypeRequestVote, message.TypeRequestVoteResponse,
		message.TypeAppendEntries, message.TypeAppendEntriesResp:
		return true
	default:
		return false
	}
}

// applyPreamble implements spec.md §4.1's "Common handler preamble": if
// msg is a peer RPC (not from a client, not a self-addressed control
// message) carrying a higher term than ours, advance our term, clear
// our vote, become a Follower, and re-dispatch msg against it. It
// returns (nextNode, true) when a transition happened — the caller must
// stop processing msg itself and let the returned Node's Handle have
// handled it instead.
func applyPreamble(c *core, self Node, bus transport.Bus, msg transport.Message) (Node, bool) {
	if c.isFromClient(msg.Src) {
		return self, false
	}
	t, err := message.TypeOf(msg.Body)
	if err != nil {
		c.logger.Fatal().Err(err).Msg("malformed message body: missing type field")
		return self, false
	}
	if !hasTermField(t) {
		return self, false
	}
	term := termOf(msg.Body)
	if term <= c.currentTerm {
		return self, false
	}

	c.logger.Info().Int("remote_term", term).Int("current_term", c.currentTerm).
		Msg("observed higher term, stepping down to follower")
	c.currentTerm = term
	c.votedFor = ""
	self.Stop()
	follower := newFollower(cloneFrom(c), bus)
	return follower.Handle(bus, msg), true
}

// handleRequestVote implements spec.md §4.1's "Request-vote handling
// (available in any role)". It never transitions roles itself — a
// higher term on the request has already been applied by the preamble
// before this runs.
func handleRequestVote(c *core, bus transport.Bus, msg transport.Message) {
	body, err := decode[message.RequestVoteBody](msg)
	if err != nil {
		c.logger.Fatal().Err(err).Msg("malformed request_vote body")
		return
	}

	granted := false
	if body.Term >= c.currentTerm &&
		(c.votedFor == "" || c.votedFor == body.CandidateID) &&
		logIsAtLeastAsUpToDate(body.LastLogTerm, body.LastLogIndex, c.log.LastTerm(), c.log.LastIndex()) {
		granted = true
		c.votedFor = body.CandidateID
	}

	reply(bus, msg, message.RequestVoteResponseBody{
		Type:        message.TypeRequestVoteResponse,
		Term:        c.currentTerm,
		VoteGranted: granted,
	})
}

// logIsAtLeastAsUpToDate implements spec.md §4.1's tie-break: "if
// last_log_term differs, the larger term wins; otherwise the longer log
// wins".
func logIsAtLeastAsUpToDate(candidateTerm, candidateIndex, ourTerm, ourIndex int) bool {
	if candidateTerm != ourTerm {
		return candidateTerm > ourTerm
	}
	return candidateIndex >= ourIndex
}

// rejectClientOp implements spec.md §4.1's "Client-op default: unless
// Leader, reply an error signifying that only the leader accepts
// writes". SPEC_FULL.md §4.1.5 considered and rejected proxying this to
// a known leader, since the transport's reply address is the immediate
// sender and a naive forward would answer the wrong party.
func rejectClientOp(c *core, bus transport.Bus, msg transport.Message) {
	reply(bus, msg, errorBodyFor(ErrNotLeader))
}
