package raft

import (
	"github.com/pkg/errors"

	"github.com/raftkv/gateway/kvstore"
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/transport"
)

// applyCommitted advances lastApplied up to commitIndex, applying each
// newly-committed entry's command to the store (spec.md §4.1.3's "Apply"
// semantics). respond is called once per applied entry with the
// original command envelope and the client-visible body to send back;
// only the Leader passes a non-nil respond (spec.md §4.2: "Reads routed
// by the gateway do not pass through the log" — only writes/cas do, and
// only the leader that originally accepted them replies).
func applyCommitted(c *core, respond func(cmd transport.Message, body any)) {
	for c.lastApplied < c.commitIndex {
		c.lastApplied++
		entry := c.log.Get(c.lastApplied)
		body := applyEntry(c.store, entry)
		if respond != nil {
			respond(entry.Command, body)
		}
	}
}

// applyEntry performs the state-machine side effect for a single entry
// and returns the client-visible response body (spec.md §4.1.3: "write
// stores key/value and replies write_ok; cas reads current value,
// replies error 20… error 22… otherwise stores to and replies cas_ok").
func applyEntry(store *kvstore.Store, entry Entry) any {
	t, err := message.TypeOf(entry.Command.Body)
	if err != nil {
		return message.ErrorBody{Type: message.TypeError, Code: message.CodeNotLeaderOrConflict, Text: "malformed logged command"}
	}

	switch t {
	case message.TypeWrite:
		var body message.WriteBody
		if err := decodeInto(entry.Command.Body, &body); err != nil {
			return message.ErrorBody{Type: message.TypeError, Code: message.CodeNotLeaderOrConflict, Text: "malformed write command"}
		}
		store.Write(body.Key, body.Value)
		return message.WriteOkBody{Type: message.TypeWriteOk}

	case message.TypeCas:
		var body message.CasBody
		if err := decodeInto(entry.Command.Body, &body); err != nil {
			return message.ErrorBody{Type: message.TypeError, Code: message.CodeNotLeaderOrConflict, Text: "malformed cas command"}
		}
		if err := store.CompareAndSwap(body.Key, body.From, body.To); err != nil {
			return errorBodyFor(errors.Wrap(err, "applying cas command"))
		}
		return message.CasOkBody{Type: message.TypeCasOk}

	default:
		return message.ErrorBody{Type: message.TypeError, Code: message.CodeNotLeaderOrConflict, Text: "unsupported logged command"}
	}
}
