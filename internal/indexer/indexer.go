// Package indexer owns the write path: the single goroutine that walks the
// Bitcoin chain block by block, extracts inscription envelopes, resolves
// them against the execution engine, and commits the result. Grounded on
// the teacher's internal/scanner/block_scanner.go (atomic progress
// counters, a goroutine-driven scan loop checking ctx.Done() between
// units of work, periodic progress logging), with the teacher's
// heuristics.AnalyzeTx replaced by envelope parsing, opschema dispatch, and
// engine execution, per SPEC_FULL.md 4.K.
package indexer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"

	"github.com/rawblock/l2ordinals-indexer/internal/engine"
	"github.com/rawblock/l2ordinals-indexer/internal/envelope"
	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/opschema"
	"github.com/rawblock/l2ordinals-indexer/internal/prevout"
	"github.com/rawblock/l2ordinals-indexer/internal/reorg"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

// PollInterval is how long the driver sleeps when the node tip has not
// advanced, and again between applied blocks, matching the two 10ms sleeps
// named in SPEC_FULL.md 4.K.
const PollInterval = 10 * time.Millisecond

// NodeSource is the subset of a Bitcoin RPC client the driver needs to walk
// the chain. internal/bitcoinrpc.Client satisfies this structurally.
type NodeSource interface {
	GetBlockCount() (int64, error)
	GetBlockHash(height int64) (*chainhash.Hash, error)
	GetBlock(hash *chainhash.Hash) (*wire.MsgBlock, error)
}

// Config holds the driver's tunable parameters, distinct from the engine's
// own Config (self-issuance height), which is carried on Engine already.
type Config struct {
	ChainParams  *chaincfg.Params
	SavepointDir string
}

// Driver is the single writer over Store. It owns no other mutable state:
// the prevout fetcher and node client are read-only collaborators, matching
// SPEC_FULL.md 5's "only the write transaction" shared-state rule.
type Driver struct {
	Store    kv.Store
	Node     NodeSource
	Fetcher  *prevout.Fetcher
	Engine   *engine.Engine
	Config   Config
	Log      *logrus.Entry
	Savepoints *SavepointManager

	height atomic.Int64
	tip    atomic.Int64
}

// New builds a Driver. fetcher must be built over a prevout.TxSource backed
// by the same node the driver reads blocks from.
func New(store kv.Store, node NodeSource, fetcher *prevout.Fetcher, eng *engine.Engine, cfg Config, log *logrus.Entry) *Driver {
	return &Driver{
		Store:      store,
		Node:       node,
		Fetcher:    fetcher,
		Engine:     eng,
		Config:     cfg,
		Log:        log,
		Savepoints: NewSavepointManager(cfg.SavepointDir),
	}
}

// Progress is a snapshot of the driver's position, the same shape the
// teacher's BlockScanner.GetProgress exposes for its scan range.
type Progress struct {
	Height    int64
	NodeTip   int64
}

// GetProgress returns the driver's last-applied height and the most
// recently observed node tip.
func (d *Driver) GetProgress() Progress {
	return Progress{Height: d.height.Load(), NodeTip: d.tip.Load()}
}

// Run drives the indexer until ctx is cancelled or a Ledger/Fatal error
// occurs. A Fatal error (unrecoverable reorg) is logged via logrus's Fatal
// level, which terminates the process the same way the source's
// panic!("unrecoverable reorg") does (SPEC_FULL.md 7).
func (d *Driver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := d.tick(ctx); err != nil {
			return err
		}
	}
}

func (d *Driver) tick(ctx context.Context) error {
	rt, err := d.Store.BeginRead()
	if err != nil {
		return errkind.NewLedger("begin read", err)
	}
	tip, haveTip, err := state.GetTipHeight(rt)
	rt.Close()
	if err != nil {
		return errkind.NewLedger("get tip height", err)
	}

	nodeHeight, err := d.Node.GetBlockCount()
	if err != nil {
		d.Log.WithError(err).Warn("get block count failed, retrying")
		return sleepOrDone(ctx, PollInterval)
	}
	d.tip.Store(nodeHeight)

	var nextHeight uint32
	if haveTip {
		nextHeight = tip + 1
	}
	if haveTip && int64(tip) >= nodeHeight {
		return sleepOrDone(ctx, PollInterval)
	}

	block, err := d.fetchBlockWithRetry(ctx, nextHeight)
	if err != nil {
		return err
	}

	if err := d.checkReorg(ctx, nextHeight, block.Header.PrevBlock); err != nil {
		var rerr *reorg.Error
		if asReorgError(err, &rerr) {
			if rerr.Kind == reorg.Unrecoverable {
				d.Log.WithField("height", nextHeight).Fatal("unrecoverable reorg detected, terminating")
				return errkind.NewFatal("unrecoverable reorg at height %d", nextHeight)
			}
			return d.handleReorg(rerr)
		}
		return err
	}

	if err := d.applyBlock(ctx, nextHeight, block); err != nil {
		return err
	}

	if nextHeight%reorg.SavepointInterval == 0 {
		if err := d.Savepoints.DeleteOldest(); err != nil {
			return errkind.NewLedger("delete oldest savepoint", err)
		}
		if err := d.Savepoints.Take(d.Store, nextHeight); err != nil {
			return errkind.NewLedger("take savepoint", err)
		}
	}

	d.height.Store(int64(nextHeight))
	if nextHeight%100 == 0 {
		d.Log.WithField("height", nextHeight).Info("indexed block")
	}
	return sleepOrDone(ctx, PollInterval)
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func asReorgError(err error, target **reorg.Error) bool {
	if rerr, ok := err.(*reorg.Error); ok {
		*target = rerr
		return true
	}
	return false
}

// fetchBlockWithRetry fetches the block at height, retrying with the same
// exponential backoff shape internal/prevout uses for its own RPC retries.
func (d *Driver) fetchBlockWithRetry(ctx context.Context, height uint32) (*wire.MsgBlock, error) {
	backoff := time.Second
	const maxBackoff = 120 * time.Second
	for {
		hash, err := d.Node.GetBlockHash(int64(height))
		if err == nil {
			block, err2 := d.Node.GetBlock(hash)
			if err2 == nil {
				return block, nil
			}
			err = err2
		}
		if backoff > maxBackoff {
			return nil, errkind.NewLedger("fetch block", fmt.Errorf("height %d: %w", height, err))
		}
		d.Log.WithError(err).WithField("height", height).Warn("fetch block failed, backing off")
		if err := sleepOrDone(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

// checkReorg compares the stored chain against the incoming block's parent,
// matching SPEC_FULL.md 4.K step 3.
func (d *Driver) checkReorg(ctx context.Context, height uint32, prevBlockHash chainhash.Hash) error {
	lookup := &nodeHashLookup{store: d.Store, node: d.Node}
	return reorg.Detect(ctx, lookup, height, prevBlockHash)
}

// handleReorg rewinds the store to the most recent savepoint at or below
// height-depth, matching SPEC_FULL.md 4.G's recoverable path. The next tick
// re-indexes from the restored tip.
func (d *Driver) handleReorg(rerr *reorg.Error) error {
	target := rerr.Height - rerr.Depth
	dir, savedHeight, ok := d.Savepoints.RewindTo(target)
	if !ok {
		return errkind.NewFatal("recoverable reorg at height %d depth %d but no savepoint at or below %d", rerr.Height, rerr.Depth, target)
	}
	d.Log.WithField("to_height", savedHeight).Warn("rewinding to savepoint after recoverable reorg")

	if err := d.Store.Close(); err != nil {
		return errkind.NewLedger("close store before rewind", err)
	}
	restored, err := kv.Open(dir)
	if err != nil {
		return errkind.NewLedger("reopen savepoint", err)
	}
	d.Store = restored
	return nil
}

type nodeHashLookup struct {
	store kv.Store
	node  NodeSource
}

func (l *nodeHashLookup) StoredHash(ctx context.Context, height uint32) (chainhash.Hash, bool, error) {
	rt, err := l.store.BeginRead()
	if err != nil {
		return chainhash.Hash{}, false, err
	}
	defer rt.Close()
	hdr, err := state.GetBlockHeader(rt, height)
	if err != nil || hdr == nil {
		return chainhash.Hash{}, false, err
	}
	return hdr.BlockHash(), true, nil
}

func (l *nodeHashLookup) NodeHash(ctx context.Context, height uint32) (chainhash.Hash, error) {
	h, err := l.node.GetBlockHash(int64(height))
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *h, nil
}

// applyBlock parses, resolves, executes and indexes every transaction in
// block at height within a single write batch, matching SPEC_FULL.md 4.K
// step 4. Transactions are applied in witness order with the coinbase
// evaluated last (SPEC_FULL.md 5).
func (d *Driver) applyBlock(ctx context.Context, height uint32, block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return errkind.NewLedger("apply block", fmt.Errorf("height %d: block has no coinbase", height))
	}
	coinbase := block.Transactions[0]
	rest := block.Transactions[1:]

	prevouts, err := d.resolvePrevouts(ctx, rest)
	if err != nil {
		return err
	}

	wb, err := d.Store.BeginWrite()
	if err != nil {
		return errkind.NewLedger("begin write", err)
	}
	ok := false
	defer func() {
		if !ok {
			wb.Close()
		}
	}()

	if err := state.PutBlockHeader(wb, height, block.Header); err != nil {
		return errkind.NewLedger("put block header", err)
	}

	timestamp := uint32(block.Header.Timestamp.Unix())
	coinbaseHash := coinbase.TxHash()

	for _, tx := range rest {
		if err := d.applyTransaction(wb, tx, height, timestamp, prevouts, coinbaseHash, false); err != nil {
			return err
		}
	}
	if err := d.applyTransaction(wb, coinbase, height, timestamp, prevouts, coinbaseHash, true); err != nil {
		return err
	}

	if err := state.PutTipHeight(wb, height); err != nil {
		return errkind.NewLedger("put tip height", err)
	}
	if err := wb.Commit(); err != nil {
		return errkind.NewLedger("commit block", err)
	}
	ok = true
	return nil
}

// resolvePrevouts fetches the referenced TxOut for every input across txs
// through the prevout fetcher, zipping results back onto their outpoints
// using the fetcher's ordering guarantee (the i-th delivered TxOut
// corresponds to the i-th submitted outpoint, SPEC_FULL.md 4.F). Sends run
// on their own goroutine so a block referencing more outpoints than the
// fetcher's channel buffer cannot deadlock against the receive loop below.
func (d *Driver) resolvePrevouts(ctx context.Context, txs []*wire.MsgTx) (map[wire.OutPoint]wire.TxOut, error) {
	var outpoints []wire.OutPoint
	for _, tx := range txs {
		for _, in := range tx.TxIn {
			outpoints = append(outpoints, in.PreviousOutPoint)
		}
	}
	if len(outpoints) == 0 {
		return map[wire.OutPoint]wire.TxOut{}, nil
	}

	go func() {
		for _, op := range outpoints {
			select {
			case d.Fetcher.In <- op:
			case <-ctx.Done():
				return
			}
		}
	}()

	out := make(map[wire.OutPoint]wire.TxOut, len(outpoints))
	for _, op := range outpoints {
		select {
		case txOut, chOk := <-d.Fetcher.Out:
			if !chOk {
				return nil, errkind.NewLedger("resolve prevouts", fmt.Errorf("fetcher output channel closed early"))
			}
			out[op] = txOut
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

// satpointString renders the (txid, vout, offset) triple this indexer
// tracks sat locations at, using chainhash.Hash's display byte order so
// satpoints read the same way ord's own reveal-tx:vout:offset convention
// does.
func satpointString(txid chainhash.Hash, vout uint32, offset uint64) string {
	return fmt.Sprintf("%s:%d:%d", txid.String(), vout, offset)
}

func opschemaInscriptionID(txid chainhash.Hash, index uint32) opschema.InscriptionID {
	return opschema.InscriptionID{TxID: [32]byte(txid), Index: index}
}
