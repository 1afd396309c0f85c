// Package prevout resolves spent outputs (prevouts) for inscription
// transfer tracking: given an outpoint, what TxOut it spent. Grounded on
// l2o_indexer/src/fetcher.rs's batching/retry/ordering shape.
package prevout

import (
	"context"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Tuning constants carried over from fetcher.rs.
const (
	ChannelBufferSize = 20_000
	BatchSize         = 2_048
	ParallelRequests  = 12
	initialBackoff    = time.Second
	maxBackoff        = 120 * time.Second
)

// TxSource issues batched raw-transaction lookups against the node.
type TxSource interface {
	GetTransactions(ctx context.Context, txids []chainhash.Hash) ([]*wire.MsgTx, error)
}

// Fetcher batches outpoints arriving on In, resolves each to the TxOut it
// references, and delivers results on Out in the same order they were
// submitted.
type Fetcher struct {
	In  chan wire.OutPoint
	Out chan wire.TxOut

	source TxSource
}

// New starts the fetcher's background consumer goroutine. Closing In
// drains any in-flight batch and then stops the goroutine; ctx cancellation
// ends retry waits and is passed to each TxSource call, which decides when
// to check it.
func New(ctx context.Context, source TxSource) *Fetcher {
	f := &Fetcher{
		In:     make(chan wire.OutPoint, ChannelBufferSize),
		Out:    make(chan wire.TxOut, ChannelBufferSize),
		source: source,
	}
	go f.run(ctx)
	return f
}

func (f *Fetcher) run(ctx context.Context) {
	defer close(f.Out)
	for {
		first, ok := <-f.In
		if !ok {
			return
		}
		batch := []wire.OutPoint{first}
	drain:
		for len(batch) < BatchSize {
			select {
			case op, ok := <-f.In:
				if !ok {
					break drain
				}
				batch = append(batch, op)
			default:
				break drain
			}
		}

		results := f.resolveBatch(ctx, batch)
		for _, out := range results {
			select {
			case f.Out <- out:
			case <-ctx.Done():
				return
			}
		}
	}
}

// resolveBatch partitions batch across at most ParallelRequests workers,
// each fetching its chunk's referenced transactions with retry, and
// reassembles results in the original order.
func (f *Fetcher) resolveBatch(ctx context.Context, batch []wire.OutPoint) []wire.TxOut {
	chunkSize := (len(batch) / ParallelRequests) + 1
	var chunks [][]wire.OutPoint
	for i := 0; i < len(batch); i += chunkSize {
		end := i + chunkSize
		if end > len(batch) {
			end = len(batch)
		}
		chunks = append(chunks, batch[i:end])
	}

	out := make([]wire.TxOut, len(batch))
	var wg sync.WaitGroup
	offset := 0
	for _, chunk := range chunks {
		wg.Add(1)
		go func(start int, chunk []wire.OutPoint) {
			defer wg.Done()
			txids := make([]chainhash.Hash, len(chunk))
			for i, op := range chunk {
				txids[i] = op.Hash
			}
			txs, err := retryGetTransactions(ctx, f.source, txids)
			if err != nil {
				return
			}
			for i, tx := range txs {
				if tx == nil || int(chunk[i].Index) >= len(tx.TxOut) {
					continue
				}
				out[start+i] = *tx.TxOut[chunk[i].Index]
			}
		}(offset, chunk)
		offset += len(chunk)
	}
	wg.Wait()
	return out
}

// retryGetTransactions retries source.GetTransactions with exponential
// backoff doubling from 1s, giving up once the next sleep would exceed
// 120s, matching fetcher.rs's retry helper.
func retryGetTransactions(ctx context.Context, source TxSource, txids []chainhash.Hash) ([]*wire.MsgTx, error) {
	backoff := initialBackoff
	for {
		txs, err := source.GetTransactions(ctx, txids)
		if err == nil {
			return txs, nil
		}
		if backoff > maxBackoff {
			return nil, err
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
}
