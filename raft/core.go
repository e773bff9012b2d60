// Package raft implements the role-polymorphic Raft replica described in
// spec.md §4.1: a node in one of three roles (Follower, Candidate,
// Leader), each handling inbound messages and timer ticks and returning
// the (possibly new) Node to use going forward. It keeps the teacher's
// channel-free, directly-called handler shape but drops the teacher's
// sync.RWMutex-guarded serverState/serverTerm fields: a single worker
// (package engine) is the only caller of Handle, so no field here is
// ever touched from two goroutines at once (see SPEC_FULL.md §5).
package raft

import (
	"github.com/raftkv/gateway/config"
	"github.com/raftkv/gateway/kvstore"
	"github.com/raftkv/gateway/raftlog"
	"github.com/raftkv/gateway/transport"
	"github.com/rs/zerolog"
)

// Entry aliases raftlog.Entry so role files don't need their own import
// just to name the type.
type Entry = raftlog.Entry

// Role names the three Raft states (spec.md §4.1).
type Role string

const (
	RoleFollower  Role = "follower"
	RoleCandidate Role = "candidate"
	RoleLeader    Role = "leader"
)

// Node is the capability set every role variant implements (spec.md
// §4.1: "handle(message) → Node, timer callbacks"). Handle is the only
// entry point the engine worker calls; Stop cancels the role's timers
// during a transition or on shutdown. The three query methods expose
// just enough store/log state for the gateway (package gateway) to
// serve reads without reaching into Raft-internal fields (spec.md
// §4.2); every role variant gets them for free by embedding *core.
type Node interface {
	Handle(bus transport.Bus, msg transport.Message) Node
	Role() Role
	Stop()

	// LocalRead serves spec.md §4.2's direct leaseholder read path:
	// the caller has already established self is Leader.
	LocalRead(key string) (value any, found bool)
	// QuorumSnapshot implements spec.md §4.2.1's
	// build_quorum_read_response: the current timestamp (last_applied),
	// the stored value unless a conflicting uncommitted write/cas for
	// key is logged, and whether such a conflict exists.
	QuorumSnapshot(key string) (timestamp int, data any, hasConflict bool)
	// LeaderHint returns the most recently observed leader id (spec.md
	// §9 open-question resolution (a)), or "" if none has been seen.
	LeaderHint() string
}

// core holds every field carried across a role transition unchanged
// (spec.md §4.1: "construct the new role carrying forward (store,
// current_term, voted_for, log, commit_index, last_applied)"). Role
// variants embed *core and add their own role-specific fields
// (spec.md §3: "Candidate-only", "Leader-only").
type core struct {
	id      string
	peerIDs []string // all other nodes, excludes self
	cfg     config.Config
	logger  zerolog.Logger

	store *kvstore.Store
	log   *raftlog.Log

	currentTerm int
	votedFor    string
	commitIndex int
	lastApplied int

	// lastKnownLeader resolves spec.md §9's open leaseholder-discovery
	// question via option (a): remember the leader_id of the most recent
	// append_entries we accepted as valid (SPEC_FULL.md §4.1.4).
	lastKnownLeader string
}

// newCore constructs the zero-valued shared state for a freshly
// bootstrapped node (spec.md §3: term/votedFor/log/commitIndex/
// lastApplied all start at their zero values).
func newCore(id string, peerIDs []string, cfg config.Config, logger zerolog.Logger) *core {
	return &core{
		id:      id,
		peerIDs: peerIDs,
		cfg:     cfg,
		logger:  logger,
		store:   kvstore.New(),
		log:     raftlog.New(),
	}
}

// cloneFrom copies every field a role transition must carry forward,
// per spec.md §4.1. It does not copy role-specific fields (voters,
// nextIndex, …): each role constructor initializes its own.
func cloneFrom(prev *core) *core {
	next := *prev
	return &next
}

func (c *core) majority() int {
	n := len(c.peerIDs) + 1
	return n/2 + 1
}

// Majority returns the number of votes (including self) needed to win
// an election: ⌊N/2⌋+1, where N is the full cluster size including
// self (3 of 5, 2 of 3, 1 of 1). The gateway's quorum-read sample size
// does not use it; it is computed separately by gateway.ceilHalf.
func (c *core) Majority() int { return c.majority() }

// isFromClient reports whether msg.Src is neither this node nor one of
// its peers, i.e. it originated outside the Raft cluster (spec.md
// §4.1: "Common handler preamble… for every inbound message that is not
// from a client…").
func (c *core) isFromClient(src string) bool {
	if src == c.id {
		return false
	}
	for _, p := range c.peerIDs {
		if p == src {
			return false
		}
	}
	return true
}

// New constructs a freshly bootstrapped Follower — the role every node
// starts in (spec.md §4.2: "wraps a Raft node (initially a Follower)").
func New(id string, peerIDs []string, cfg config.Config, logger zerolog.Logger, bus transport.Bus) Node {
	return newFollower(newCore(id, peerIDs, cfg, logger), bus)
}
