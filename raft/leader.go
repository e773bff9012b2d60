package raft

import (
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/timer"
	"github.com/raftkv/gateway/transport"
	"golang.org/x/exp/maps"
)

// Leader implements spec.md §4.1.3. On entry it initializes per-peer
// nextIndex/matchIndex and starts broadcasting heartbeats; client writes
// are appended to its own log and replicated before being applied and
// answered.
type Leader struct {
	*core
	heartbeatTimer *timer.HeartbeatTimer
	nextIndex      map[string]int
	matchIndex     map[string]int

	// pending holds the original client envelope for every log index
	// this leader appended, so applyCommitted can reply to the right
	// request once an entry commits (spec.md §4.1.3: "once committed,
	// reply to the original client").
	pending map[int]transport.Message

	// bus is stashed so the applyCommitted respond callback (which
	// doesn't carry one of its own) can send replies; it's refreshed on
	// every Handle call, though in practice it never changes identity.
	bus transport.Bus
}

func newLeader(c *core, bus transport.Bus) *Leader {
	l := &Leader{
		core:       c,
		nextIndex:  make(map[string]int, len(c.peerIDs)),
		matchIndex: make(map[string]int, len(c.peerIDs)),
		pending:    make(map[int]transport.Message),
		bus:        bus,
	}
	for _, peer := range c.peerIDs {
		l.nextIndex[peer] = c.log.LastIndex() + 1
		l.matchIndex[peer] = 0
	}
	c.lastKnownLeader = c.id

	l.heartbeatTimer = timer.NewHeartbeatTimer(c.cfg.HeartbeatRate, func() {
		_ = bus.Send(c.id, message.ControlBody{Type: message.TypeHeartbeatTick})
	})

	c.logger.Info().Int("term", c.currentTerm).Msg("became leader")
	l.broadcastAppendEntries(bus)
	return l
}

func (l *Leader) Role() Role { return RoleLeader }

func (l *Leader) Stop() { l.heartbeatTimer.Stop() }

func (l *Leader) Handle(bus transport.Bus, msg transport.Message) Node {
	l.bus = bus
	if next, transitioned := applyPreamble(l.core, l, bus, msg); transitioned {
		return next
	}

	t, err := message.TypeOf(msg.Body)
	if err != nil {
		l.logger.Fatal().Err(err).Msg("malformed message: missing type field")
		return l
	}

	switch t {
	case message.TypeRequestVote:
		handleRequestVote(l.core, bus, msg)
		return l

	case message.TypeRequestVoteResponse:
		return l

	case message.TypeAppendEntries:
		// Another node at our term or lower claims to be leader; ours
		// is the legitimate one unless the preamble already stepped us
		// down for a higher term, so simply reject.
		reply(bus, msg, message.AppendEntriesResponseBody{
			Type: message.TypeAppendEntriesResp, Term: l.currentTerm, Success: false,
		})
		return l

	case message.TypeAppendEntriesResp:
		return l.handleAppendEntriesResponse(bus, msg)

	case message.TypeWrite, message.TypeCas:
		l.appendClientCommand(bus, msg)
		return l

	case message.TypeHeartbeatTick:
		l.broadcastAppendEntries(bus)
		return l

	default:
		l.logger.Warn().Str("type", string(t)).Msg("unknown message type")
		return l
	}
}

// appendClientCommand implements spec.md §4.1.3's write path: append the
// client's command to our own log at currentTerm, remember how to reply
// once it commits, then attempt immediate commit advancement (the
// single-node "solo" cluster commits to itself with nothing to wait on).
func (l *Leader) appendClientCommand(bus transport.Bus, msg transport.Message) {
	l.log.Append(Entry{Term: l.currentTerm, Command: msg})
	index := l.log.LastIndex()
	l.pending[index] = msg
	l.matchIndex[l.id] = index

	l.advanceCommitIndex()
	l.broadcastAppendEntries(bus)
}

// broadcastAppendEntries sends each peer an append_entries carrying
// whatever entries it is missing starting at that peer's nextIndex
// (spec.md §4.1.3: "heartbeat / replicate"). With no peers (a
// single-node cluster) this is a no-op and commit advancement already
// happened synchronously in appendClientCommand.
func (l *Leader) broadcastAppendEntries(bus transport.Bus) {
	for _, peer := range l.peerIDs {
		l.sendAppendEntriesTo(bus, peer)
	}
}

func (l *Leader) handleAppendEntriesResponse(bus transport.Bus, msg transport.Message) Node {
	body, err := decode[message.AppendEntriesResponseBody](msg)
	if err != nil {
		l.logger.Fatal().Err(err).Msg("malformed append_entries_response body")
		return l
	}
	if body.Term < l.currentTerm {
		return l
	}

	if !body.Success {
		if l.nextIndex[msg.Src] > 1 {
			l.nextIndex[msg.Src]--
		}
		l.sendAppendEntriesTo(bus, msg.Src)
		return l
	}

	l.matchIndex[msg.Src] = body.LastIndex
	l.nextIndex[msg.Src] = body.LastIndex + 1
	l.advanceCommitIndex()
	return l
}

func (l *Leader) sendAppendEntriesTo(bus transport.Bus, peer string) {
	next := l.nextIndex[peer]
	prevIndex := next - 1
	prevTerm := l.log.TermAt(prevIndex)
	entries := l.log.Tail(next)

	wireEntries := make([]message.LogEntryWire, len(entries))
	for i, e := range entries {
		wireEntries[i] = message.LogEntryWire{Term: e.Term, Command: e.Command}
	}

	_ = bus.Send(peer, message.AppendEntriesBody{
		Type:         message.TypeAppendEntries,
		Term:         l.currentTerm,
		LeaderID:     l.id,
		PrevLogIndex: prevIndex,
		PrevLogTerm:  prevTerm,
		Entries:      wireEntries,
		LeaderCommit: l.commitIndex,
	})
}

// advanceCommitIndex implements spec.md §4.1.3's commit rule: find the
// largest N such that a majority of matchIndex values (including our
// own, always the log's tail) are >= N and log[N].term == currentTerm
// (the Raft paper's safety restriction against committing a previous
// term's entry purely by replication count).
func (l *Leader) advanceCommitIndex() {
	for n := l.log.LastIndex(); n > l.commitIndex; n-- {
		if l.log.TermAt(n) != l.currentTerm {
			continue
		}
		count := 0
		for _, m := range maps.Values(l.matchIndex) {
			if m >= n {
				count++
			}
		}
		if count >= l.majority() {
			l.commitIndex = n
			applyCommitted(l.core, l.respond)
			return
		}
	}
}

// respond is applyCommitted's callback for the Leader: reply to the
// original client envelope we stashed in pending when the entry was
// appended, then forget it. Entries applied from a role we weren't
// Leader for (shouldn't happen, since only Leader passes a non-nil
// respond) or whose client request this process never saw (we became
// Leader after the entry was already in the log) have no pending
// entry and are silently skipped.
func (l *Leader) respond(cmd transport.Message, body any) {
	if _, ok := l.pending[l.lastApplied]; !ok {
		return
	}
	delete(l.pending, l.lastApplied)
	reply(l.bus, cmd, body)
}
