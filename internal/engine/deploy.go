package engine

import (
	"math/big"

	"github.com/rawblock/l2ordinals-indexer/internal/decimal"
	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

const defaultDecimals = 18

// processDeploy registers a new tick, grounded on executor.rs's Deploy arm.
func (e *Engine) processDeploy(rw kv.WriteBatch, msg Message) (*state.Event, error) {
	if msg.ToIsCoinbase {
		return nil, errkind.NewProtocol(errkind.KindInscribeToCoinbase, "deploy")
	}
	proto, ok := protocolFromWire(msg.Operation.Protocol)
	if !ok {
		return nil, errkind.NewProtocol(errkind.KindNotImplemented, "deploy: protocol %q", msg.Operation.Protocol)
	}
	wire := msg.Operation.Deploy

	tick, err := state.ParseTick(wire.Tick)
	if err != nil {
		return nil, err
	}

	existing, err := state.GetTokenInfo(rw, proto, tick)
	if err != nil {
		return nil, errkind.NewLedger("get token info", err)
	}
	if existing != nil {
		return nil, errkind.NewProtocol(errkind.KindDuplicateTick, "tick %q", tick.String())
	}

	selfMint := false
	if tick.SelfIssuance() {
		if msg.Height < e.Config.SelfIssuanceActivationHeight {
			return nil, errkind.NewProtocol(errkind.KindSelfIssuanceNotActivated, "height %d < %d", msg.Height, e.Config.SelfIssuanceActivationHeight)
		}
		if wire.SelfMint == nil || !*wire.SelfMint {
			return nil, errkind.NewProtocol(errkind.KindSelfIssuanceNotActivated, "self_mint must be \"true\" for tick %q", tick.String())
		}
		selfMint = true
	}

	decimals := uint8(defaultDecimals)
	if wire.Decimals != nil {
		d, err := decimal.Parse(*wire.Decimals)
		if err != nil {
			return nil, errkind.NewProtocol(errkind.KindDecimalsTooLarge, "decimals %q: %v", *wire.Decimals, err)
		}
		v, err := d.CheckedToUint8()
		if err != nil || v > decimal.MaxScale {
			return nil, errkind.NewProtocol(errkind.KindDecimalsTooLarge, "decimals %q", *wire.Decimals)
		}
		decimals = v
	}
	base, err := decimal.FromUint64(10).CheckedPowU(uint64(decimals))
	if err != nil {
		return nil, errkind.NewLedger("pow", err)
	}

	maxSupplyLiteral := wire.MaxSupply
	if selfMint && maxSupplyLiteral == "0" {
		maxSupplyLiteral = maxUint64AsBigInt.String()
	}
	supplyDec, err := decimal.Parse(maxSupplyLiteral)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindSupplyOutOfRange, "max %q: %v", wire.MaxSupply, err)
	}
	if supplyDec.IsZero() {
		return nil, errkind.NewProtocol(errkind.KindSupplyOutOfRange, "max is zero")
	}
	if supplyDec.Scale() > int(decimals) {
		return nil, errkind.NewProtocol(errkind.KindSupplyOutOfRange, "max %q has more than %d fractional digits", wire.MaxSupply, decimals)
	}
	supplyInt, err := supplyDec.CheckedMul(base)
	if err != nil {
		return nil, errkind.NewLedger("normalize supply", err)
	}
	supply, err := supplyInt.CheckedToUint128()
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindSupplyOutOfRange, "max %q out of range: %v", wire.MaxSupply, err)
	}
	if supply.Cmp(rescaledMaxUint64(base)) > 0 {
		return nil, errkind.NewProtocol(errkind.KindSupplyOutOfRange, "max %q exceeds 2^64-1", wire.MaxSupply)
	}

	limitLiteral := maxSupplyLiteral
	if wire.MintLimit != nil {
		limitLiteral = *wire.MintLimit
	}
	limitDec, err := decimal.Parse(limitLiteral)
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindMintLimitOutOfRange, "lim %q: %v", limitLiteral, err)
	}
	if limitDec.Scale() > int(decimals) {
		return nil, errkind.NewProtocol(errkind.KindMintLimitOutOfRange, "lim %q has more than %d fractional digits", limitLiteral, decimals)
	}
	limitInt, err := limitDec.CheckedMul(base)
	if err != nil {
		return nil, errkind.NewLedger("normalize limit", err)
	}
	limit, err := limitInt.CheckedToUint128()
	if err != nil {
		return nil, errkind.NewProtocol(errkind.KindMintLimitOutOfRange, "lim %q out of range: %v", limitLiteral, err)
	}

	info := state.TokenInfo{
		Tick:              tick.String(),
		InscriptionID:     msg.InscriptionID,
		InscriptionNumber: msg.InscriptionNumber,
		Supply:            supply,
		BurnedSupply:      state.BigZero(),
		Minted:            state.BigZero(),
		LimitPerMint:      limit,
		Decimals:          decimals,
		DeployBy:          msg.From,
		IsSelfMint:        selfMint,
		DeployedHeight:    msg.Height,
		DeployedTimestamp: msg.Timestamp,
	}
	if err := state.PutTokenInfo(rw, proto, tick, info); err != nil {
		return nil, errkind.NewLedger("put token info", err)
	}

	return &state.Event{
		Kind:               state.EventDeploy,
		DeployTick:         tick.String(),
		DeploySupply:       supply,
		DeployLimitPerMint: limit,
		DeployDecimals:     decimals,
		DeploySelfMint:     selfMint,
	}, nil
}

// rescaledMaxUint64 returns (2^64-1) * base's unscaled ceiling in base
// units, the range a normalized supply must not exceed.
func rescaledMaxUint64(base decimal.Decimal) *big.Int {
	normalized, err := decimal.FromBigInt(maxUint64AsBigInt).CheckedMul(base)
	if err != nil {
		return maxUint64AsBigInt
	}
	v, err := normalized.CheckedToUint128()
	if err != nil {
		return maxUint64AsBigInt
	}
	return v
}
