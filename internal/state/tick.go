package state

import (
	"encoding/hex"
	"strings"

	"github.com/rawblock/l2ordinals-indexer/internal/errkind"
)

// Tick length bounds, matching l2o_ord_store/src/tick.rs.
const (
	OriginalTickLength     = 4
	SelfIssuanceTickLength = 5
	maxTickByteCount       = SelfIssuanceTickLength
)

// Tick is a case-preserving protocol ticker, 4 or 5 bytes long. The
// 5-byte length marks a self-issuance token (mint requires parent
// authorization).
type Tick struct {
	raw []byte
}

// ParseTick validates and wraps a ticker string.
func ParseTick(s string) (Tick, error) {
	b := []byte(s)
	if len(b) < OriginalTickLength || len(b) > SelfIssuanceTickLength {
		return Tick{}, errkind.NewProtocol(errkind.KindInvalidTickLength, "tick %q", s)
	}
	return Tick{raw: b}, nil
}

// String returns the original-case ticker text.
func (t Tick) String() string { return string(t.raw) }

// SelfIssuance reports whether this ticker is the 5-byte self-issuance class.
func (t Tick) SelfIssuance() bool { return len(t.raw) == SelfIssuanceTickLength }

// HexKey renders the lowercased ticker zero-padded to maxTickByteCount bytes
// and hex-encoded, the table-key form used by BRC20_TOKEN/BRC20_BALANCES in
// table.rs (LowerTick::hex).
func (t Tick) HexKey() string {
	lower := []byte(strings.ToLower(string(t.raw)))
	buf := make([]byte, maxTickByteCount)
	copy(buf, lower)
	return hex.EncodeToString(buf)
}
