package raft

import (
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/timer"
	"github.com/raftkv/gateway/transport"
)

// Follower implements spec.md §4.1.1. It owns one randomized election
// timer, reset on every append_entries and request_vote it observes
// from a peer, and transitions to Candidate when that timer fires
// without having seen one.
type Follower struct {
	*core
	electionTimer *timer.RandomTimer
}

func newFollower(c *core, bus transport.Bus) *Follower {
	f := &Follower{core: c}
	f.electionTimer = timer.NewRandomTimer(c.cfg.LowerTimeout, c.cfg.UpperTimeout, func() {
		_ = bus.Send(c.id, message.ControlBody{Type: message.TypeTurnCandidate})
	})
	c.logger.Debug().Str("role", string(RoleFollower)).Int("term", c.currentTerm).Msg("became follower")
	return f
}

func (f *Follower) Role() Role { return RoleFollower }

func (f *Follower) Stop() { f.electionTimer.Stop() }

func (f *Follower) Handle(bus transport.Bus, msg transport.Message) Node {
	if next, transitioned := applyPreamble(f.core, f, bus, msg); transitioned {
		return next
	}

	t, err := message.TypeOf(msg.Body)
	if err != nil {
		f.logger.Fatal().Err(err).Msg("malformed message: missing type field")
		return f
	}

	switch t {
	case message.TypeAppendEntries:
		f.electionTimer.Reset()
		return f.handleAppendEntries(bus, msg)

	case message.TypeRequestVote:
		f.electionTimer.Reset()
		handleRequestVote(f.core, bus, msg)
		return f

	case message.TypeRequestVoteResponse, message.TypeAppendEntriesResp:
		// Stale responses to RPCs we no longer care about; ignore.
		return f

	case message.TypeWrite, message.TypeCas:
		rejectClientOp(f.core, bus, msg)
		return f

	case message.TypeTurnCandidate:
		f.electionTimer.Stop()
		return enterCandidate(cloneFrom(f.core), bus)

	default:
		f.logger.Warn().Str("type", string(t)).Msg("unknown message type")
		return f
	}
}

// handleAppendEntries implements spec.md §4.1.1's append_entries rules.
func (f *Follower) handleAppendEntries(bus transport.Bus, msg transport.Message) Node {
	body, err := decode[message.AppendEntriesBody](msg)
	if err != nil {
		f.logger.Fatal().Err(err).Msg("malformed append_entries body")
		return f
	}

	if body.Term < f.currentTerm {
		reply(bus, msg, message.AppendEntriesResponseBody{
			Type: message.TypeAppendEntriesResp, Term: f.currentTerm, Success: false,
		})
		return f
	}

	if !f.log.HasEntryAt(body.PrevLogIndex) || f.log.TermAt(body.PrevLogIndex) != body.PrevLogTerm {
		reply(bus, msg, message.AppendEntriesResponseBody{
			Type: message.TypeAppendEntriesResp, Term: f.currentTerm, Success: false,
		})
		return f
	}

	f.lastKnownLeader = body.LeaderID

	entries := make([]Entry, len(body.Entries))
	for i, e := range body.Entries {
		entries[i] = Entry{Term: e.Term, Command: e.Command}
	}
	f.log.TruncateAndAppend(body.PrevLogIndex, entries)

	if body.LeaderCommit > f.commitIndex {
		f.commitIndex = min(body.LeaderCommit, f.log.LastIndex())
		applyCommitted(f.core, nil)
	}

	reply(bus, msg, message.AppendEntriesResponseBody{
		Type: message.TypeAppendEntriesResp, Term: f.currentTerm, Success: true, LastIndex: f.log.LastIndex(),
	})
	return f
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
