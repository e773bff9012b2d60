package gateway

import (
	"encoding/json"

	"github.com/raftkv/gateway/transport"
)

// decode unmarshals msg.Body into a fresh T, mirroring raft.decode: a
// decode failure here means a peer sent a shape this type doesn't
// understand, which is a protocol bug rather than a condition to
// recover from silently.
func decode[T any](msg transport.Message) (T, error) {
	var body T
	err := json.Unmarshal(msg.Body, &body)
	return body, err
}

func reply(bus transport.Bus, msg transport.Message, body any) {
	_ = bus.Reply(msg, body)
}
