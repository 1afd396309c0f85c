// Package envelope parses ordinals-style inscription envelopes out of a
// transaction's input witnesses. An envelope is a taproot script-path leaf
// shaped like OP_FALSE OP_IF <tag> <value> <tag> <value> ... OP_ENDIF,
// carried as the last witness element of an input that spends via script
// path. No ordinals envelope parser exists anywhere in this corpus, so the
// walk below is hand-rolled directly on top of btcd's txscript opcode
// tokenizer (the teacher already depends on the parent btcd module for its
// own script handling), rather than reimplementing opcode decoding.
package envelope

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Tag byte values keying the value pushes inside an envelope body.
const (
	TagContentType     = 0x01
	TagPointer         = 0x02
	TagParent          = 0x03
	TagMetadata        = 0x05
	TagMetaprotocol    = 0x07
	TagContentEncoding = 0x09
	TagBody            = 0x00
)

// Payload is the decoded contents of a single envelope.
type Payload struct {
	ContentType      []byte
	Pointer          []byte
	Parent           []byte
	Metadata         []byte
	Metaprotocol     []byte
	ContentEncoding  []byte
	Body             []byte
	Unrecognized     map[byte][][]byte
	UnrecognizedEven bool
	DuplicateField   bool
	IncompleteField  bool
	PushNum          bool
	Stutter          bool
	Hidden           bool
}

// Envelope is one parsed OP_FALSE OP_IF ... OP_ENDIF block, located by the
// input and intra-input offset it was found at.
type Envelope struct {
	Input   int
	Offset  int
	Payload Payload
}

// rawPush is one tokenized data element together with whether it arrived
// via a numeric opcode (OP_1..OP_16) rather than a pushdata.
type rawPush struct {
	data    []byte
	pushNum bool
}

// FromTransaction walks every input's witness stack looking for envelopes.
// Inputs whose last witness element does not parse as a script, or whose
// script carries no OP_FALSE OP_IF marker, contribute no envelopes.
func FromTransaction(tx *wire.MsgTx) []Envelope {
	var out []Envelope
	for i, in := range tx.TxIn {
		if len(in.Witness) == 0 {
			continue
		}
		script := lastScriptCandidate(in.Witness)
		if script == nil {
			continue
		}
		envs := fromScript(script)
		for offset, e := range envs {
			out = append(out, Envelope{Input: i, Offset: offset, Payload: e})
		}
	}
	return out
}

// lastScriptCandidate returns the witness element most likely to be a
// taproot script-path leaf: the element just below the control block. When
// the stack's final element looks like an annex (starts with 0x50) it is
// dropped first, so the third-to-last element is returned; otherwise the
// second-to-last of a >=2-element stack is returned.
func lastScriptCandidate(witness wire.TxWitness) []byte {
	n := len(witness)
	if n < 2 {
		return nil
	}
	last := n - 1
	if len(witness[last]) > 0 && witness[last][0] == 0x50 {
		last--
	}
	if last < 1 {
		return nil
	}
	return witness[last-1]
}

// fromScript finds every OP_FALSE OP_IF ... OP_ENDIF envelope in script, in
// the order encountered, tolerating trailing garbage after the last
// OP_ENDIF and multiple sibling envelopes at the top level.
func fromScript(script []byte) []Payload {
	tok := txscript.MakeScriptTokenizer(0, script)

	var payloads []Payload
	prevWasFalse := false

	for tok.Next() {
		op := tok.Opcode()
		switch {
		case op == txscript.OP_IF && prevWasFalse:
			body, ok := readEnvelopeBody(&tok)
			if ok {
				payloads = append(payloads, decodeBody(body))
			}
			prevWasFalse = false
			continue
		case op == txscript.OP_FALSE || op == txscript.OP_0:
			prevWasFalse = true
			continue
		default:
			prevWasFalse = false
		}
	}
	return payloads
}

// readEnvelopeBody consumes tokens up to and including the matching
// OP_ENDIF, returning the raw pushes found in between.
func readEnvelopeBody(tok *txscript.ScriptTokenizer) ([]rawPush, bool) {
	var pushes []rawPush
	for tok.Next() {
		op := tok.Opcode()
		if op == txscript.OP_ENDIF {
			return pushes, true
		}
		if op == txscript.OP_0 {
			// ScriptBuilder encodes a single 0x00 byte (the body tag) as OP_0.
			pushes = append(pushes, rawPush{data: []byte{0}})
			continue
		}
		if data := tok.Data(); data != nil {
			pushes = append(pushes, rawPush{data: data})
			continue
		}
		if n, ok := opcodeNumericValue(op); ok {
			pushes = append(pushes, rawPush{data: []byte{byte(n)}, pushNum: true})
			continue
		}
		// Any other opcode inside the envelope body (a genuine script
		// opcode rather than a push) ends the envelope without a
		// complete body; swallow tokens to the next OP_ENDIF if present
		// so a later sibling envelope can still be found.
		for tok.Next() {
			if tok.Opcode() == txscript.OP_ENDIF {
				return pushes, false
			}
		}
		return pushes, false
	}
	return pushes, false
}

// opcodeNumericValue reports the integer a numeric opcode encodes
// (OP_1..OP_16 -> 1..16). OP_1NEGATE is not numeric here, so the caller
// treats it like any other non-push opcode and drops the envelope.
func opcodeNumericValue(op byte) (int, bool) {
	if op >= txscript.OP_1 && op <= txscript.OP_16 {
		return int(op) - int(txscript.OP_1) + 1, true
	}
	return 0, false
}

// decodeBody interprets a flat list of pushes as alternating tag/value
// pairs, following the even-tag/unrecognized and duplicate/incomplete-field
// rules from the protocol's envelope format. A body push segmented across
// multiple consecutive pushes for the same body tag is concatenated.
func decodeBody(pushes []rawPush) Payload {
	p := Payload{Unrecognized: map[byte][][]byte{}}
	seen := map[byte]bool{}

	i := 0
	for i < len(pushes) {
		tagPush := pushes[i]
		if len(tagPush.data) != 1 {
			p.IncompleteField = true
			break
		}
		tag := tagPush.data[0]
		i++

		if tag == TagBody {
			var body []byte
			for i < len(pushes) {
				body = append(body, pushes[i].data...)
				i++
			}
			p.Body = append(p.Body, body...)
			break
		}

		if i >= len(pushes) {
			p.IncompleteField = true
			break
		}
		value := pushes[i].data
		if pushes[i].pushNum {
			p.PushNum = true
		}
		i++

		if seen[tag] {
			p.DuplicateField = true
		}
		seen[tag] = true

		switch tag {
		case TagContentType:
			p.ContentType = value
		case TagPointer:
			p.Pointer = value
		case TagParent:
			p.Parent = value
		case TagMetadata:
			p.Metadata = value
		case TagMetaprotocol:
			p.Metaprotocol = value
		case TagContentEncoding:
			p.ContentEncoding = value
		default:
			if tag%2 == 0 {
				p.UnrecognizedEven = true
			}
			p.Unrecognized[tag] = append(p.Unrecognized[tag], value)
		}
	}

	// Any zero-length push that is neither the first nor the last push of
	// the body is recorded as a stutter, which callers treat as cosmetic
	// rather than an incomplete field.
	for i, push := range pushes {
		if i > 0 && len(push.data) == 0 && i+1 < len(pushes) {
			p.Stutter = true
			break
		}
	}
	return p
}
