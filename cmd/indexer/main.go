// Command indexer runs the ordinals/BRC-20/BRC-21/L2O-A indexer: the
// block-by-block driver (internal/indexer) and the read-only JSON-RPC
// server (internal/rpcserver) over one shared pebble store. Grounded on the
// teacher's cmd/engine/main.go (the overall "connect to dependencies, warn
// and degrade rather than fail on optional ones, start background workers,
// run the router" shape), restructured around spf13/cobra's command tree
// instead of a single flat main so `serve` and `height` are separate
// subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rawblock/l2ordinals-indexer/internal/bitcoinrpc"
	"github.com/rawblock/l2ordinals-indexer/internal/config"
	"github.com/rawblock/l2ordinals-indexer/internal/engine"
	"github.com/rawblock/l2ordinals-indexer/internal/indexer"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/obslog"
	"github.com/rawblock/l2ordinals-indexer/internal/prevout"
	"github.com/rawblock/l2ordinals-indexer/internal/rpcserver"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

func main() {
	root := &cobra.Command{
		Use:   "indexer",
		Short: "Ordinals/BRC-20/BRC-21/L2O-A indexer and JSON-RPC server",
	}
	root.AddCommand(serveCmd())
	root.AddCommand(heightCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the indexer driver and JSON-RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func heightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "height",
		Short: "Print the indexer's last-committed block height",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeight()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := obslog.New(cfg.LogLevel)

	log.WithField("host", cfg.BitcoinRPCHost).Info("connecting to bitcoin rpc")
	node, err := bitcoinrpc.NewClient(bitcoinrpc.Config{Host: cfg.BitcoinRPCHost, User: cfg.BitcoinRPCUser, Pass: cfg.BitcoinRPCPass}, obslog.Component(log, "bitcoinrpc"))
	if err != nil {
		return fmt.Errorf("connect bitcoin rpc: %w", err)
	}
	defer node.Shutdown()

	store, err := kv.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher := prevout.New(ctx, node)
	eng := engine.New(engine.Config{SelfIssuanceActivationHeight: cfg.SelfIssuanceActivationHeight})
	driver := indexer.New(store, node, fetcher, eng, indexer.Config{
		ChainParams:  cfg.Params,
		SavepointDir: cfg.DataDir + "/savepoints",
	}, obslog.Component(log, "indexer"))

	go func() {
		if err := driver.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("indexer driver stopped")
			cancel()
		}
	}()

	router := rpcserver.NewRouter(store, obslog.Component(log, "rpcserver"))
	srv := &serverWithShutdown{addr: cfg.ListenAddr, handler: router, log: obslog.Component(log, "rpcserver")}
	return srv.runUntil(ctx)
}

func runHeight() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := kv.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	rt, err := store.BeginRead()
	if err != nil {
		return err
	}
	defer rt.Close()

	height, found, err := state.GetTipHeight(rt)
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("no blocks indexed yet")
		return nil
	}
	fmt.Println(height)
	return nil
}
