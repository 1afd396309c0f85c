package state

import (
	"encoding/hex"
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// AddressKey identifies a BRC-20/BRC-21 balance holder: either a decodable
// address or, when a script has no address form, its hash plus whether the
// script is OP_RETURN (a burn sink). Grounded on
// l2o_ord_store/src/script_key.rs's ScriptKey enum.
type AddressKey struct {
	Address    string
	ScriptHash [20]byte
	IsOpReturn bool
	hasAddress bool
}

// BurnAddressKey is the canonical coinbase-inscription redirect sink,
// matching script_key.rs's BURN_ADDRESS ("1111111111111111111114oLvT2").
var BurnAddressKey = AddressKey{Address: "1111111111111111111114oLvT2", hasAddress: true}

// FromAddress builds an AddressKey from a decoded address string.
func FromAddress(addr string) AddressKey {
	return AddressKey{Address: addr, hasAddress: true}
}

// FromScript derives an AddressKey from an output script, preferring the
// address form when the script is address-decodable under params, falling
// back to a script-hash + OP_RETURN-ness pair otherwise.
func FromScript(script []byte, params *chaincfg.Params) AddressKey {
	if addr, err := addressFromScript(script, params); err == nil && addr != nil {
		return AddressKey{Address: addr.EncodeAddress(), hasAddress: true}
	}
	var hash [20]byte
	copy(hash[:], btcutil.Hash160(script))
	return AddressKey{
		ScriptHash: hash,
		IsOpReturn: txscript.GetScriptClass(script) == txscript.NullDataTy,
	}
}

func addressFromScript(script []byte, params *chaincfg.Params) (btcutil.Address, error) {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, params)
	if err != nil || len(addrs) != 1 {
		return nil, err
	}
	return addrs[0], nil
}

// String renders the address form if present, else the hex script hash.
func (k AddressKey) String() string {
	if k.hasAddress {
		return k.Address
	}
	return hex.EncodeToString(k.ScriptHash[:])
}

// IsBurn reports whether this key is an OP_RETURN script-hash destination,
// the condition process_transfer uses to increment burned_supply.
func (k AddressKey) IsBurn() bool { return !k.hasAddress && k.IsOpReturn }

// addressKeyWire is AddressKey's JSON wire shape; hasAddress is unexported
// so it must be threaded through explicitly rather than relying on
// encoding/json's default struct marshaling, matching script_key.rs's
// tagged-enum Serialize output ({"Address": ...} vs {"ScriptHash": ...}).
type addressKeyWire struct {
	Address    string  `json:"Address,omitempty"`
	ScriptHash *string `json:"ScriptHash,omitempty"`
	IsOpReturn bool    `json:"is_op_return,omitempty"`
}

func (k AddressKey) MarshalJSON() ([]byte, error) {
	if k.hasAddress {
		return json.Marshal(addressKeyWire{Address: k.Address})
	}
	h := hex.EncodeToString(k.ScriptHash[:])
	return json.Marshal(addressKeyWire{ScriptHash: &h, IsOpReturn: k.IsOpReturn})
}

func (k *AddressKey) UnmarshalJSON(b []byte) error {
	var w addressKeyWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.ScriptHash == nil {
		*k = AddressKey{Address: w.Address, hasAddress: true}
		return nil
	}
	raw, err := hex.DecodeString(*w.ScriptHash)
	if err != nil {
		return err
	}
	var hash [20]byte
	copy(hash[:], raw)
	*k = AddressKey{ScriptHash: hash, IsOpReturn: w.IsOpReturn}
	return nil
}

// Equal reports whether k and other identify the same address or script
// hash.
func (k AddressKey) Equal(other AddressKey) bool { return k.equal(other) }

func (k AddressKey) equal(other AddressKey) bool {
	if k.hasAddress != other.hasAddress {
		return false
	}
	if k.hasAddress {
		return k.Address == other.Address
	}
	return k.ScriptHash == other.ScriptHash && k.IsOpReturn == other.IsOpReturn
}
