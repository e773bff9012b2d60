package raft

import (
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/timer"
	"github.com/raftkv/gateway/transport"
)

// Candidate implements spec.md §4.1.2. On entry it bumps its term,
// votes for itself, and broadcasts request_vote to every peer; it wins
// by collecting grants from a majority in its own term, or starts a
// fresh election (bumping the term again) if its timer fires first.
type Candidate struct {
	*core
	voters        map[string]bool
	electionTimer *timer.RandomTimer
}

// enterCandidate constructs a Candidate and immediately promotes it to
// Leader if it already holds a majority of votes on entry — the only
// way that can happen is a single-node cluster, where self-voting alone
// satisfies majority() and no peer will ever send a
// request_vote_response to trigger the usual check.
func enterCandidate(c *core, bus transport.Bus) Node {
	cand := newCandidate(c, bus)
	if len(cand.voters) >= cand.majority() {
		cand.electionTimer.Stop()
		return newLeader(cloneFrom(cand.core), bus)
	}
	return cand
}

func newCandidate(c *core, bus transport.Bus) *Candidate {
	c.currentTerm++
	c.votedFor = c.id
	c.lastKnownLeader = ""

	cand := &Candidate{core: c, voters: map[string]bool{c.id: true}}
	cand.electionTimer = timer.NewRandomTimer(c.cfg.LowerTimeout, c.cfg.UpperTimeout, func() {
		_ = bus.Send(c.id, message.ControlBody{Type: message.TypeNewElection})
	})

	c.logger.Info().Int("term", c.currentTerm).Msg("became candidate")
	cand.requestVotes(bus)
	return cand
}

func (cd *Candidate) Role() Role { return RoleCandidate }

func (cd *Candidate) Stop() { cd.electionTimer.Stop() }

func (cd *Candidate) requestVotes(bus transport.Bus) {
	lastLogTerm := cd.log.LastTerm()
	if cd.log.LastIndex() == 0 {
		lastLogTerm = cd.currentTerm
	}
	body := message.RequestVoteBody{
		Type:         message.TypeRequestVote,
		Term:         cd.currentTerm,
		CandidateID:  cd.id,
		LastLogIndex: cd.log.LastIndex(),
		LastLogTerm:  lastLogTerm,
	}
	for _, peer := range cd.peerIDs {
		_ = bus.Send(peer, body)
	}
}

func (cd *Candidate) Handle(bus transport.Bus, msg transport.Message) Node {
	if next, transitioned := applyPreamble(cd.core, cd, bus, msg); transitioned {
		return next
	}

	t, err := message.TypeOf(msg.Body)
	if err != nil {
		cd.logger.Fatal().Err(err).Msg("malformed message: missing type field")
		return cd
	}

	switch t {
	case message.TypeRequestVote:
		handleRequestVote(cd.core, bus, msg)
		return cd

	case message.TypeRequestVoteResponse:
		return cd.handleRequestVoteResponse(bus, msg)

	case message.TypeAppendEntries:
		return cd.handleAppendEntries(bus, msg)

	case message.TypeAppendEntriesResp:
		return cd

	case message.TypeWrite, message.TypeCas:
		rejectClientOp(cd.core, bus, msg)
		return cd

	case message.TypeNewElection:
		cd.electionTimer.Stop()
		return enterCandidate(cloneFrom(cd.core), bus)

	default:
		cd.logger.Warn().Str("type", string(t)).Msg("unknown message type")
		return cd
	}
}

func (cd *Candidate) handleRequestVoteResponse(bus transport.Bus, msg transport.Message) Node {
	body, err := decode[message.RequestVoteResponseBody](msg)
	if err != nil {
		cd.logger.Fatal().Err(err).Msg("malformed request_vote_response body")
		return cd
	}
	if !body.VoteGranted || body.Term != cd.currentTerm || cd.voters[msg.Src] {
		return cd
	}

	cd.voters[msg.Src] = true
	if len(cd.voters) >= cd.majority() {
		cd.electionTimer.Stop()
		return newLeader(cloneFrom(cd.core), bus)
	}
	return cd
}

// handleAppendEntries: a Candidate that sees an append_entries at a
// term at least as large as its own recognizes a leader already won
// this term's election and steps down (Raft paper Figure 2, "If
// AppendEntries RPC received from new leader: convert to follower" —
// this is stricter than the strict "term >" rule in the role-transition
// table of spec.md §4.1, which only covers the general case; a Candidate
// running in its own current term must also defer on an exact-term
// match, or two nodes could both believe they're viable leaders for the
// same term).
func (cd *Candidate) handleAppendEntries(bus transport.Bus, msg transport.Message) Node {
	body, err := decode[message.AppendEntriesBody](msg)
	if err != nil {
		cd.logger.Fatal().Err(err).Msg("malformed append_entries body")
		return cd
	}
	if body.Term < cd.currentTerm {
		reply(bus, msg, message.AppendEntriesResponseBody{
			Type: message.TypeAppendEntriesResp, Term: cd.currentTerm, Success: false,
		})
		return cd
	}

	cd.electionTimer.Stop()
	cd.currentTerm = body.Term
	follower := newFollower(cloneFrom(cd.core), bus)
	return follower.Handle(bus, msg)
}
