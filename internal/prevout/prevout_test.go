package prevout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

type fakeSource struct {
	byTxid map[chainhash.Hash]*wire.MsgTx
	fail   int
}

func (s *fakeSource) GetTransactions(_ context.Context, txids []chainhash.Hash) ([]*wire.MsgTx, error) {
	if s.fail > 0 {
		s.fail--
		return nil, errors.New("rpc unavailable")
	}
	out := make([]*wire.MsgTx, len(txids))
	for i, id := range txids {
		out[i] = s.byTxid[id]
	}
	return out, nil
}

func txWithValue(value int64) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxOut(&wire.TxOut{Value: value})
	tx.AddTxOut(&wire.TxOut{Value: value + 1})
	return tx
}

func TestFetcherResolvesInOrder(t *testing.T) {
	txA := txWithValue(100)
	txB := txWithValue(200)
	var hashA, hashB chainhash.Hash
	hashA[0] = 1
	hashB[0] = 2

	source := &fakeSource{byTxid: map[chainhash.Hash]*wire.MsgTx{hashA: txA, hashB: txB}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := New(ctx, source)

	f.In <- wire.OutPoint{Hash: hashA, Index: 1}
	f.In <- wire.OutPoint{Hash: hashB, Index: 0}
	close(f.In)

	var got []wire.TxOut
	for out := range f.Out {
		got = append(got, out)
	}
	if len(got) != 2 {
		t.Fatalf("got %d outs, want 2", len(got))
	}
	if got[0].Value != 101 {
		t.Fatalf("got[0].Value = %d, want 101", got[0].Value)
	}
	if got[1].Value != 200 {
		t.Fatalf("got[1].Value = %d, want 200", got[1].Value)
	}
}

func TestRetryGetTransactionsSucceedsAfterTransientFailure(t *testing.T) {
	source := &fakeSource{byTxid: map[chainhash.Hash]*wire.MsgTx{}, fail: 1}
	start := time.Now()
	_, err := retryGetTransactions(context.Background(), source, nil)
	if err != nil {
		t.Fatalf("retryGetTransactions: %v", err)
	}
	if time.Since(start) < initialBackoff {
		t.Fatal("expected at least one backoff sleep before success")
	}
}

func TestRetryGetTransactionsRespectsContextCancellation(t *testing.T) {
	source := &fakeSource{fail: 1000}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := retryGetTransactions(ctx, source, nil); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
