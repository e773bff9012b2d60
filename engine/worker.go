// Package engine is the single-threaded worker spec.md §5 requires: one
// goroutine drains an inbound channel and is the sole mutator of Raft
// and gateway state (mirroring original_source's
// ThreadPoolExecutor(max_workers=1) pattern, translated to Go's native
// idiom — a buffered channel plus one dedicated goroutine instead of a
// thread pool capped at one worker).
package engine

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/raftkv/gateway/config"
	"github.com/raftkv/gateway/gateway"
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/raft"
	"github.com/raftkv/gateway/transport"
	"github.com/rs/zerolog"
)

// Worker serializes every inbound message through one goroutine. Before
// init arrives it only recognizes TypeInit; everything else is dropped
// with a warning (spec.md §6: "Until bootstrap, any other message is
// dropped with a warning"), matching original_source/main.py's
// handle_init/handle_rest split.
type Worker struct {
	bus    transport.Bus
	cfg    config.Config
	logger zerolog.Logger

	inbox chan transport.Message

	gw *gateway.Gateway
}

// New constructs a Worker bound to bus. Call Run in its own goroutine,
// then feed inbound messages to Submit.
func New(bus transport.Bus, cfg config.Config, logger zerolog.Logger) *Worker {
	return &Worker{
		bus:    bus,
		cfg:    cfg,
		logger: logger,
		inbox:  make(chan transport.Message, 256),
	}
}

// Submit enqueues msg for serial processing. Safe to call from any
// goroutine (the transport's own dispatch goroutines, typically).
func (w *Worker) Submit(msg transport.Message) {
	w.inbox <- msg
}

// Run drains the inbox until it is closed. It is the only goroutine
// that ever touches w.gw or anything it owns (spec.md §5: "the store,
// log, and all Raft/gateway state are owned exclusively by the single
// worker").
func (w *Worker) Run() {
	for msg := range w.inbox {
		w.dispatch(msg)
	}
}

func (w *Worker) dispatch(msg transport.Message) {
	t, err := message.TypeOf(msg.Body)
	if err != nil {
		w.logger.Fatal().Err(errors.Wrap(err, "decoding message type")).Msg("malformed message: missing type field")
		return
	}

	if w.gw == nil {
		if t != message.TypeInit {
			w.logger.Warn().Str("type", string(t)).Msg("dropping message received before init")
			return
		}
		w.handleInit(msg)
		return
	}

	w.gw.Handle(w.bus, msg)
}

// handleInit implements spec.md §6's bootstrap handshake: construct the
// Raft node and gateway now that we know our own id and the cluster
// roster, then acknowledge.
func (w *Worker) handleInit(msg transport.Message) {
	body, err := decodeInit(msg)
	if err != nil {
		w.logger.Fatal().Err(errors.Wrap(err, "decoding init body")).Msg("malformed init body")
		return
	}

	peerIDs := make([]string, 0, len(body.NodeIDs)-1)
	for _, id := range body.NodeIDs {
		if id != body.NodeID {
			peerIDs = append(peerIDs, id)
		}
	}

	node := raft.New(body.NodeID, peerIDs, w.cfg, w.logger, w.bus)
	w.gw = gateway.New(node, body.NodeID, peerIDs, w.cfg, w.logger)

	w.logger.Info().Str("node_id", body.NodeID).Strs("peers", peerIDs).Msg("bootstrapped")
	_ = w.bus.Reply(msg, message.InitOkBody{Type: message.TypeInitOk, InReplyTo: body.MsgID})
}

func decodeInit(msg transport.Message) (message.InitBody, error) {
	var body message.InitBody
	err := json.Unmarshal(msg.Body, &body)
	return body, err
}
