package raft

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/raftkv/gateway/config"
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		LowerTimeout:  20 * time.Millisecond,
		UpperTimeout:  40 * time.Millisecond,
		HeartbeatRate: 5 * time.Millisecond,
	}
}

func clientMessage(src string, body any) transport.Message {
	raw, _ := json.Marshal(body)
	return transport.Message{Src: src, Dest: "n1", Body: raw}
}

func peerMessage(src string, body any) transport.Message {
	raw, _ := json.Marshal(body)
	return transport.Message{Src: src, Dest: "n1", Body: raw}
}

// TestSoloLeaderCommitsImmediately exercises spec.md §4.1.3's "if solo,
// attempt commit": a single-node cluster has no peers to wait on, so a
// client write commits and replies in the same call.
func TestSoloLeaderCommitsImmediately(t *testing.T) {
	bus := transport.NewFakeBus("n1", []string{"n1"})
	node := New("n1", nil, testConfig(), zerolog.Nop(), bus)
	require.Equal(t, RoleFollower, node.Role())

	// Drive the same transition the election timer would: with no
	// peers, the candidate already holds a self-vote majority on entry
	// and should become Leader without waiting on any response.
	next := node.Handle(bus, peerMessage("n1", message.ControlBody{Type: message.TypeTurnCandidate}))
	require.Equal(t, RoleLeader, next.Role())
	bus.Reset()

	next.Handle(bus, clientMessage("c1", message.WriteBody{Type: message.TypeWrite, Key: "x", Value: 1}))
	var gotWriteOk bool
	for _, sent := range bus.Outbound() {
		var body struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(sent.Body, &body))
		if body.Type == string(message.TypeWriteOk) {
			gotWriteOk = true
		}
	}
	require.True(t, gotWriteOk, "expected write_ok from the same call that appended the write")
}

func TestRequestVoteGrantedOnFreshTerm(t *testing.T) {
	bus := transport.NewFakeBus("n1", []string{"n1", "n2", "n3"})
	node := New("n1", []string{"n2", "n3"}, testConfig(), zerolog.Nop(), bus)

	node = node.Handle(bus, peerMessage("n2", message.RequestVoteBody{
		Type: message.TypeRequestVote, Term: 1, CandidateID: "n2", LastLogIndex: 0, LastLogTerm: 0,
	}))

	outbound := bus.Outbound()
	require.Len(t, outbound, 1)
	var resp message.RequestVoteResponseBody
	require.NoError(t, json.Unmarshal(outbound[0].Body, &resp))
	require.True(t, resp.VoteGranted)
	require.Equal(t, RoleFollower, node.Role())
}

func TestRequestVoteRejectsSecondCandidateSameTerm(t *testing.T) {
	bus := transport.NewFakeBus("n1", []string{"n1", "n2", "n3"})
	node := New("n1", []string{"n2", "n3"}, testConfig(), zerolog.Nop(), bus)

	node = node.Handle(bus, peerMessage("n2", message.RequestVoteBody{
		Type: message.TypeRequestVote, Term: 1, CandidateID: "n2", LastLogIndex: 0, LastLogTerm: 0,
	}))
	bus.Reset()

	node = node.Handle(bus, peerMessage("n3", message.RequestVoteBody{
		Type: message.TypeRequestVote, Term: 1, CandidateID: "n3", LastLogIndex: 0, LastLogTerm: 0,
	}))

	outbound := bus.Outbound()
	require.Len(t, outbound, 1)
	var resp message.RequestVoteResponseBody
	require.NoError(t, json.Unmarshal(outbound[0].Body, &resp))
	require.False(t, resp.VoteGranted)
}

func TestHigherTermStepsLeaderDownToFollower(t *testing.T) {
	bus := transport.NewFakeBus("n1", []string{"n1", "n2", "n3"})
	node := New("n1", []string{"n2", "n3"}, testConfig(), zerolog.Nop(), bus)
	node = node.Handle(bus, peerMessage("n1", message.ControlBody{Type: message.TypeTurnCandidate}))
	require.Equal(t, RoleCandidate, node.Role())
	node = node.Handle(bus, peerMessage("n2", message.RequestVoteResponseBody{
		Type: message.TypeRequestVoteResponse, Term: 1, VoteGranted: true,
	}))
	require.Equal(t, RoleLeader, node.Role())

	node = node.Handle(bus, peerMessage("n2", message.AppendEntriesBody{
		Type: message.TypeAppendEntries, Term: 99, LeaderID: "n2",
	}))
	require.Equal(t, RoleFollower, node.Role())
}

func TestNonLeaderRejectsClientWrite(t *testing.T) {
	bus := transport.NewFakeBus("n1", []string{"n1", "n2", "n3"})
	node := New("n1", []string{"n2", "n3"}, testConfig(), zerolog.Nop(), bus)

	node.Handle(bus, clientMessage("c1", message.WriteBody{Type: message.TypeWrite, Key: "x", Value: 1}))

	outbound := bus.Outbound()
	require.Len(t, outbound, 1)
	var resp message.ErrorBody
	require.NoError(t, json.Unmarshal(outbound[0].Body, &resp))
	require.Equal(t, message.CodeNotLeaderOrConflict, resp.Code)
}

// TestWriteReplicationCommitsOnMajority mirrors spec.md §8 scenario 2
// (N=3): a leader appends a client write, replicates to both followers,
// and commits/replies once a majority (including itself) has matched.
func TestWriteReplicationCommitsOnMajority(t *testing.T) {
	bus := transport.NewFakeBus("n1", []string{"n1", "n2", "n3"})
	node := New("n1", []string{"n2", "n3"}, testConfig(), zerolog.Nop(), bus)
	node = node.Handle(bus, peerMessage("n1", message.ControlBody{Type: message.TypeTurnCandidate}))
	node = node.Handle(bus, peerMessage("n2", message.RequestVoteResponseBody{
		Type: message.TypeRequestVoteResponse, Term: 1, VoteGranted: true,
	}))
	require.Equal(t, RoleLeader, node.Role())
	bus.Reset()

	node.Handle(bus, clientMessage("c1", message.WriteBody{Type: message.TypeWrite, Key: "x", Value: 42}))
	// No follower has acked yet: only the broadcasted append_entries goes
	// out, no client reply.
	for _, sent := range bus.Outbound() {
		var body struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(sent.Body, &body))
		require.NotEqual(t, string(message.TypeWriteOk), body.Type)
	}
	bus.Reset()

	node = node.Handle(bus, peerMessage("n2", message.AppendEntriesResponseBody{
		Type: message.TypeAppendEntriesResp, Term: 1, Success: true, LastIndex: 1,
	}))

	var gotWriteOk bool
	for _, sent := range bus.Outbound() {
		var body struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(sent.Body, &body))
		if body.Type == string(message.TypeWriteOk) {
			gotWriteOk = true
		}
	}
	require.True(t, gotWriteOk, "expected write_ok once a majority (leader + one follower) matched the entry")
}
