package envelope

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

func buildEnvelopeScript(t *testing.T, contentType, body []byte) []byte {
	t.Helper()
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_FALSE)
	b.AddOp(txscript.OP_IF)
	b.AddData([]byte{TagContentType})
	b.AddData(contentType)
	b.AddData([]byte{TagBody})
	b.AddData(body)
	b.AddOp(txscript.OP_ENDIF)
	script, err := b.Script()
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	return script
}

func txWithWitnessScript(script []byte) *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		Witness: wire.TxWitness{script, []byte{0x51}},
	})
	return tx
}

func TestFromTransactionDecodesSingleEnvelope(t *testing.T) {
	script := buildEnvelopeScript(t, []byte("text/plain;charset=utf-8"), []byte("hello world body payload for a brc20 test"))
	tx := txWithWitnessScript(script)

	envs := FromTransaction(tx)
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	p := envs[0].Payload
	if !bytes.Equal(p.ContentType, []byte("text/plain;charset=utf-8")) {
		t.Fatalf("content type = %q", p.ContentType)
	}
	if !bytes.Equal(p.Body, []byte("hello world body payload for a brc20 test")) {
		t.Fatalf("body = %q", p.Body)
	}
	if p.UnrecognizedEven || p.DuplicateField || p.IncompleteField {
		t.Fatalf("unexpected flags set: %+v", p)
	}
}

func TestFromTransactionFlagsDuplicateField(t *testing.T) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_FALSE)
	b.AddOp(txscript.OP_IF)
	b.AddData([]byte{TagContentType})
	b.AddData([]byte("text/plain"))
	b.AddData([]byte{TagContentType})
	b.AddData([]byte("application/json"))
	b.AddData([]byte{TagBody})
	b.AddData([]byte("irrelevant payload of at least forty bytes long"))
	b.AddOp(txscript.OP_ENDIF)
	script, err := b.Script()
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	tx := txWithWitnessScript(script)

	envs := FromTransaction(tx)
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	if !envs[0].Payload.DuplicateField {
		t.Fatal("expected DuplicateField to be set")
	}
}

func TestFromTransactionFlagsUnrecognizedEvenTag(t *testing.T) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_FALSE)
	b.AddOp(txscript.OP_IF)
	b.AddData([]byte{0x0a})
	b.AddData([]byte("value"))
	b.AddData([]byte{TagBody})
	b.AddData([]byte("irrelevant payload of at least forty bytes long"))
	b.AddOp(txscript.OP_ENDIF)
	script, err := b.Script()
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	tx := txWithWitnessScript(script)

	envs := FromTransaction(tx)
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1", len(envs))
	}
	if !envs[0].Payload.UnrecognizedEven {
		t.Fatal("expected UnrecognizedEven to be set")
	}
}

func TestFromTransactionNoEnvelopeWithoutWitness(t *testing.T) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{})
	if envs := FromTransaction(tx); len(envs) != 0 {
		t.Fatalf("got %d envelopes, want 0", len(envs))
	}
}

func TestFromTransactionNoEnvelopeWithoutIfMarker(t *testing.T) {
	b := txscript.NewScriptBuilder()
	b.AddOp(txscript.OP_1)
	script, err := b.Script()
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	tx := txWithWitnessScript(script)
	if envs := FromTransaction(tx); len(envs) != 0 {
		t.Fatalf("got %d envelopes, want 0", len(envs))
	}
}
