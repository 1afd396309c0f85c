// Package bitcoinrpc wraps a Bitcoin Core JSON-RPC connection, trimmed to
// the read-only methods the indexer driver and prevout fetcher need: block
// enumeration, full-block fetch, and raw-transaction lookup for a list of
// txids (one getrawtransaction call per txid; no JSON-RPC batch request is
// sent).
// Grounded on the teacher's internal/bitcoin/client.go, which wraps the same
// btcsuite/btcd/rpcclient for a different read surface (mempool/wallet
// operations); the connection setup and RawRequest fallback idiom carry
// over, the wallet-specific methods do not.
package bitcoinrpc

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"
)

// Config names the node to connect to, matching the teacher's bitcoin.Config.
type Config struct {
	Host string
	User string
	Pass string
}

// Client is a thin wrapper over rpcclient.Client exposing only the methods
// this indexer's driver loop and prevout fetcher need.
type Client struct {
	RPC    *rpcclient.Client
	Config Config
}

// NewClient dials host and verifies the connection with getblockcount,
// matching the teacher's NewClient verification step.
func NewClient(cfg Config, log *logrus.Entry) (*Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	log.WithField("host", cfg.Host).Info("connecting to bitcoin rpc")
	client, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, err
	}

	height, err := client.GetBlockCount()
	if err != nil {
		client.Shutdown()
		return nil, err
	}
	log.WithField("height", height).Info("connected to bitcoin node")

	return &Client{RPC: client, Config: cfg}, nil
}

// Shutdown closes the underlying RPC connection.
func (c *Client) Shutdown() {
	c.RPC.Shutdown()
}

// GetBlockCount returns the node's current chain height.
func (c *Client) GetBlockCount() (int64, error) {
	return c.RPC.GetBlockCount()
}

// GetBlockHash returns the block hash at height.
func (c *Client) GetBlockHash(height int64) (*chainhash.Hash, error) {
	return c.RPC.GetBlockHash(height)
}

// GetBlockChainInfo returns the node's chain-tip metadata.
func (c *Client) GetBlockChainInfo() (*btcjson.GetBlockChainInfoResult, error) {
	return c.RPC.GetBlockChainInfo()
}

// GetBlock fetches the full block at hash, transactions included.
func (c *Client) GetBlock(hash *chainhash.Hash) (*wire.MsgBlock, error) {
	return c.RPC.GetBlock(hash)
}

// GetBlockVerbose returns block header metadata (median time, confirmations)
// without transaction bodies.
func (c *Client) GetBlockVerbose(hash *chainhash.Hash) (*btcjson.GetBlockVerboseResult, error) {
	return c.RPC.GetBlockVerbose(hash)
}

// GetTransactions resolves each txid to its full transaction body in one
// RPC round-trip per id, implementing internal/prevout.TxSource. ctx
// cancellation is honored between calls; rpcclient itself has no
// context-aware RPC call in this version, so the check is done between
// requests rather than mid-flight, matching the teacher's own fire-and-wait
// RawRequest usage (no context plumbing anywhere in bitcoin/client.go
// either).
func (c *Client) GetTransactions(ctx context.Context, txids []chainhash.Hash) ([]*wire.MsgTx, error) {
	out := make([]*wire.MsgTx, len(txids))
	for i, txid := range txids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tx, err := c.RPC.GetRawTransaction(&txid)
		if err != nil {
			return nil, fmt.Errorf("bitcoinrpc: getrawtransaction %s: %w", txid, err)
		}
		out[i] = tx.MsgTx()
	}
	return out, nil
}
