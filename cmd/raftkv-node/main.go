// Command raftkv-node is the process entry point: it owns the Maelstrom
// JSON transport and logging setup spec.md §1 treats as external
// collaborators, and wires every inbound message into a single
// engine.Worker goroutine (spec.md §5).
package main

import (
	"fmt"
	"os"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
	"github.com/raftkv/gateway/config"
	"github.com/raftkv/gateway/engine"
	"github.com/raftkv/gateway/message"
	"github.com/raftkv/gateway/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:   "raftkv-node",
		Short: "a replicated key-value node speaking the Maelstrom protocol",
		RunE:  run,
	}
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	node := maelstrom.NewNode()
	bus := transport.NewMaelstromBus(node)
	cfg := config.FromEnv()

	worker := engine.New(bus, cfg, logger)
	go worker.Run()

	for _, t := range dispatchedTypes {
		t := t
		node.Handle(string(t), func(msg maelstrom.Message) error {
			worker.Submit(transport.FromMaelstromMessage(msg))
			return nil
		})
	}

	return node.Run()
}

// dispatchedTypes lists every message type the worker is prepared to
// handle (spec.md §6's client and internal protocols, plus self-
// addressed control types).
var dispatchedTypes = []message.Type{
	message.TypeInit,
	message.TypeRead,
	message.TypeWrite,
	message.TypeCas,
	message.TypeRequestVote,
	message.TypeRequestVoteResponse,
	message.TypeAppendEntries,
	message.TypeAppendEntriesResp,
	message.TypeQuorumRead,
	message.TypeQuorumReadResponse,
	message.TypeLeaseholderRead,
	message.TypeLeaseholderReadResp,
	message.TypeDeleteQuorumState,
	message.TypeTurnCandidate,
	message.TypeNewElection,
	message.TypeHeartbeatTick,
}
