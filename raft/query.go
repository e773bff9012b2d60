package raft

import (
	"encoding/json"

	"github.com/raftkv/gateway/message"
)

func (c *core) LocalRead(key string) (any, bool) {
	return c.store.Read(key)
}

func (c *core) LeaderHint() string {
	return c.lastKnownLeader
}

// QuorumSnapshot implements spec.md §4.2.1's has_conflict definition:
// "any entry in log[last_applied+1 ..] whose command is a write/cas for
// this key".
func (c *core) QuorumSnapshot(key string) (timestamp int, data any, hasConflict bool) {
	hasConflict = c.hasLoggedConflict(key)
	if !hasConflict {
		data, _ = c.store.Read(key)
	}
	return c.lastApplied, data, hasConflict
}

func (c *core) hasLoggedConflict(key string) bool {
	for idx := c.lastApplied + 1; idx <= c.log.LastIndex(); idx++ {
		entry := c.log.Get(idx)
		t, err := message.TypeOf(entry.Command.Body)
		if err != nil {
			continue
		}
		if t != message.TypeWrite && t != message.TypeCas {
			continue
		}
		if k, ok := keyOf(entry.Command.Body); ok && k == key {
			return true
		}
	}
	return false
}

func keyOf(body json.RawMessage) (string, bool) {
	var k struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &k); err != nil {
		return "", false
	}
	return k.Key, true
}
