package rpcserver

import (
	"encoding/json"

	"github.com/rawblock/l2ordinals-indexer/internal/hashfam"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

func handleGetLastBlockInscription(r kv.Reader, params json.RawMessage) (any, error) {
	var args [1]uint64
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	return state.GetLatestBlock(r, args[0])
}

func handleGetDeployInscription(r kv.Reader, params json.RawMessage) (any, error) {
	var args [1]uint64
	if err := decodeParams(params, &args); err != nil {
		return nil, err
	}
	return state.GetDeployRecord(r, args[0])
}

func parseHashTag(tag string) (hashfam.Family, error) {
	family, ok := hashfam.ParseFamily(tag)
	if !ok {
		return 0, badParams("unknown hash_tag " + tag)
	}
	return family, nil
}

func handleGetStateRootAtBlock(r kv.Reader, params json.RawMessage) (any, error) {
	var args struct {
		L2ID    uint64
		Block   uint64
		HashTag string
	}
	var raw [3]json.RawMessage
	if err := decodeParams(params, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw[0], &args.L2ID); err != nil {
		return nil, badParams("l2id: " + err.Error())
	}
	if err := json.Unmarshal(raw[1], &args.Block); err != nil {
		return nil, badParams("bitcoin_block: " + err.Error())
	}
	if err := json.Unmarshal(raw[2], &args.HashTag); err != nil {
		return nil, badParams("hash_tag: " + err.Error())
	}
	family, err := parseHashTag(args.HashTag)
	if err != nil {
		return nil, err
	}
	return state.GetStateRootAtBlock(r, family, args.L2ID, args.Block)
}

func handleGetMerkleProofStateRootAtBlock(r kv.Reader, params json.RawMessage) (any, error) {
	var raw [3]json.RawMessage
	if err := decodeParams(params, &raw); err != nil {
		return nil, err
	}
	var l2id, block uint64
	var hashTag string
	if err := json.Unmarshal(raw[0], &l2id); err != nil {
		return nil, badParams("l2id: " + err.Error())
	}
	if err := json.Unmarshal(raw[1], &block); err != nil {
		return nil, badParams("bitcoin_block: " + err.Error())
	}
	if err := json.Unmarshal(raw[2], &hashTag); err != nil {
		return nil, badParams("hash_tag: " + err.Error())
	}
	family, err := parseHashTag(hashTag)
	if err != nil {
		return nil, err
	}
	return state.GetMerkleProofStateRootAtBlock(r, family, l2id, block)
}

func handleGetSuperchainStateRootAtBlock(r kv.Reader, params json.RawMessage) (any, error) {
	var raw [2]json.RawMessage
	if err := decodeParams(params, &raw); err != nil {
		return nil, err
	}
	var block uint64
	var hashTag string
	if err := json.Unmarshal(raw[0], &block); err != nil {
		return nil, badParams("bitcoin_block: " + err.Error())
	}
	if err := json.Unmarshal(raw[1], &hashTag); err != nil {
		return nil, badParams("hash_tag: " + err.Error())
	}
	// hashTag is accepted for surface parity with l2o_getStateRootAtBlock
	// but unused: the superchain tree is combined with a single fixed hash
	// family (SHA-256) regardless of any member rollup's own family, see
	// state.SuperchainTree.
	if _, err := parseHashTag(hashTag); err != nil {
		return nil, err
	}
	return state.GetSuperchainStateRootAtBlock(r, block)
}
