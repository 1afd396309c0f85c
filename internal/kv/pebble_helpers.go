package kv

import (
	"bytes"
	"io"

	"github.com/cockroachdb/pebble/v2"
)

// pebbleReader is the subset of *pebble.DB / *pebble.Snapshot / *pebble.Batch
// (indexed) needed to implement Reader generically over all three.
type pebbleReader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

func getExact(r pebbleReader, key []byte) ([]byte, error) {
	v, closer, err := r.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	_ = closer.Close()
	return out, nil
}

func getExactOk(r pebbleReader, key []byte) ([]byte, bool, error) {
	v, err := getExact(r, key)
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func getManyExact(r pebbleReader, keys [][]byte) ([][]byte, []error) {
	values := make([][]byte, len(keys))
	errs := make([]error, len(keys))
	for i, k := range keys {
		values[i], errs[i] = getExact(r, k)
	}
	return values, errs
}

// getLeq implements the reduction's get_leq: zero the last fuzzy bytes of
// key to form an inclusive lower bound, then return the greatest stored key
// strictly less than key (i.e. the last entry of [lowerBound, key)).
func getLeq(r pebbleReader, key []byte, fuzzy int) ([]byte, bool, error) {
	pair, ok, err := getLeqKV(r, key, fuzzy)
	if !ok || err != nil {
		return nil, ok, err
	}
	return pair.Value, true, nil
}

func getLeqKV(r pebbleReader, key []byte, fuzzy int) (Pair, bool, error) {
	lower, err := leqLowerBound(key, fuzzy)
	if err != nil {
		return Pair{}, false, err
	}
	it, err := r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: key})
	if err != nil {
		return Pair{}, false, err
	}
	defer it.Close()

	if !it.Last() {
		return Pair{}, false, nil
	}
	k := it.Key()
	if !withinRange(k, lower, key) {
		return Pair{}, false, nil
	}
	v, err := it.ValueAndErr()
	if err != nil {
		return Pair{}, false, err
	}
	out := Pair{Key: bytes.Clone(k), Value: bytes.Clone(v)}
	return out, true, nil
}

func getManyLeq(r pebbleReader, keys [][]byte, fuzzy int) ([]Pair, []bool, error) {
	pairs := make([]Pair, len(keys))
	oks := make([]bool, len(keys))
	for i, k := range keys {
		p, ok, err := getLeqKV(r, k, fuzzy)
		if err != nil {
			return nil, nil, err
		}
		pairs[i] = p
		oks[i] = ok
	}
	return pairs, oks, nil
}

func scan(r pebbleReader, lower, upperExclusive []byte) ([]Pair, error) {
	it, err := r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upperExclusive})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Pair
	for it.First(); it.Valid(); it.Next() {
		v, err := it.ValueAndErr()
		if err != nil {
			return nil, err
		}
		out = append(out, Pair{Key: bytes.Clone(it.Key()), Value: bytes.Clone(v)})
	}
	return out, nil
}
