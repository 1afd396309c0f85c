package opschema

import "testing"

func pad(body string) string {
	for len(body) < MinBodyLength {
		body += " "
	}
	return body
}

func TestDeserializeDeployNewAction(t *testing.T) {
	body := []byte(pad(`{"p":"brc-20","op":"deploy","tick":"ordi","max":"21000000","lim":"1000"}`))
	op, err := Deserialize(body, "text/plain;charset=utf-8", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if op.Kind != KindDeploy || op.Protocol != ProtocolBRC20 {
		t.Fatalf("got kind=%s protocol=%s", op.Kind, op.Protocol)
	}
	if op.Deploy.Tick != "ordi" || op.Deploy.MaxSupply != "21000000" || *op.Deploy.MintLimit != "1000" {
		t.Fatalf("deploy fields mismatch: %+v", op.Deploy)
	}
}

func TestDeserializeMintCapturesParent(t *testing.T) {
	body := []byte(pad(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"1000"}`))
	parent := InscriptionID{Index: 0}
	op, err := Deserialize(body, "application/json", Action{Kind: ActionNew, Parent: &parent})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if op.Kind != KindMint || op.MintParent != &parent {
		t.Fatalf("mint parent not threaded through: %+v", op)
	}
}

func TestDeserializeTransferActionOnlyAllowsTransferOp(t *testing.T) {
	deploy := []byte(pad(`{"p":"brc-20","op":"deploy","tick":"abcd","max":"12000","lim":"12","dec":"11"}`))
	if _, err := Deserialize(deploy, "text/plain", Action{Kind: ActionTransfer}); err != ErrNotRecognized {
		t.Fatalf("deploy via ActionTransfer = %v, want ErrNotRecognized", err)
	}

	mint := []byte(pad(`{"p":"brc-20","op":"mint","tick":"abcd","amt":"12000"}`))
	if _, err := Deserialize(mint, "text/plain", Action{Kind: ActionTransfer}); err != ErrNotRecognized {
		t.Fatalf("mint via ActionTransfer = %v, want ErrNotRecognized", err)
	}

	transfer := []byte(pad(`{"p":"brc-20","op":"transfer","tick":"abcd","amt":"12000"}`))
	op, err := Deserialize(transfer, "text/plain", Action{Kind: ActionTransfer})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if op.Kind != KindTransfer {
		t.Fatalf("got kind=%s, want transfer", op.Kind)
	}
}

func TestDeserializeInscribeTransferFromNewAction(t *testing.T) {
	body := []byte(pad(`{"p":"brc-20","op":"transfer","tick":"abcd","amt":"12000"}`))
	op, err := Deserialize(body, "text/plain", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if op.Kind != KindInscribeTransfer {
		t.Fatalf("got kind=%s, want inscribeTransfer", op.Kind)
	}
}

func TestDeserializeRejectsBodyBelowMinLength(t *testing.T) {
	body := []byte(`{"p":"brc-20","op":"mint","amt":"1"}`)
	if len(body) >= MinBodyLength {
		t.Fatalf("test fixture body is %d bytes, want < %d", len(body), MinBodyLength)
	}
	if _, err := Deserialize(body, "text/plain", Action{Kind: ActionNew}); err != ErrBodyTooShort {
		t.Fatalf("got %v, want ErrBodyTooShort", err)
	}
}

func TestDeserializeRejectsBadContentType(t *testing.T) {
	body := []byte(pad(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"1000"}`))
	if _, err := Deserialize(body, "image/png", Action{Kind: ActionNew}); err != ErrInvalidContentType {
		t.Fatalf("got %v, want ErrInvalidContentType", err)
	}
}

func TestDeserializeSelfIssuanceRequiresSelfMintLiteral(t *testing.T) {
	missing := []byte(pad(`{"p":"brc-20","op":"deploy","tick":"abcde","max":"100","lim":"10","dec":"10"}`))
	if _, err := Deserialize(missing, "text/plain", Action{Kind: ActionNew}); err == nil {
		t.Fatal("expected error for missing self_mint on 5-byte tick")
	}

	badLiteral := []byte(pad(`{"p":"brc-20","op":"deploy","tick":"abcde","max":"100","lim":"10","dec":"10","self_mint":"True"}`))
	if _, err := Deserialize(badLiteral, "text/plain", Action{Kind: ActionNew}); err == nil {
		t.Fatal("expected error for non-literal self_mint value")
	}

	ok := []byte(pad(`{"p":"brc-20","op":"deploy","tick":"abcde","max":"100","lim":"10","dec":"10","self_mint":"true"}`))
	op, err := Deserialize(ok, "text/plain", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if op.Deploy.SelfMint == nil || !*op.Deploy.SelfMint {
		t.Fatalf("self_mint not parsed true: %+v", op.Deploy)
	}
}

func TestDeserializeIgnoresSelfMintOnNonSelfIssuanceTick(t *testing.T) {
	body := []byte(pad(`{"p":"brc-20","op":"deploy","tick":"1234","max":"100","lim":"22","dec":"11","self_mint":"true"}`))
	op, err := Deserialize(body, "text/plain", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if op.Deploy.SelfMint != nil {
		t.Fatalf("expected SelfMint nil for 4-byte tick, got %v", *op.Deploy.SelfMint)
	}
}

func TestDeserializeBRC21L2DepositAndWithdraw(t *testing.T) {
	deposit := []byte(pad(`{"p":"brc-21","op":"l2deposit","tick":"ordi","to":"bc1qexampleaddress","amt":"500"}`))
	op, err := Deserialize(deposit, "text/plain", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize l2deposit: %v", err)
	}
	if op.Kind != KindL2Deposit || op.L2Deposit.To != "bc1qexampleaddress" {
		t.Fatalf("l2deposit mismatch: %+v", op)
	}

	withdraw := []byte(pad(`{"p":"brc-21","op":"l2withdraw","tick":"ordi","to":"bc1qexampleaddress","amt":"500","proof":{"siblings":[]}}`))
	op, err = Deserialize(withdraw, "text/plain", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize l2withdraw: %v", err)
	}
	if op.Kind != KindL2Withdraw {
		t.Fatalf("got kind=%s, want l2withdraw", op.Kind)
	}

	if _, err := Deserialize(deposit, "text/plain", Action{Kind: ActionTransfer}); err != ErrNotRecognized {
		t.Fatalf("l2deposit via ActionTransfer = %v, want ErrNotRecognized", err)
	}
}

func TestDeserializeL2OADeployAndBlockOnlyFromNewAction(t *testing.T) {
	deploy := []byte(pad(`{"p":"l2o-a","op":"deploy","l2id":7,"public_key":"0","start_state_root":"00","hash_function":"Sha256","proof_type":"Groth16BN128","vk_alpha_1":["1","2","1"]}`))
	op, err := Deserialize(deploy, "application/json", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize l2oa deploy: %v", err)
	}
	if op.Kind != KindL2OADeploy || op.L2OADeploy.L2ID != 7 || op.L2OADeploy.ProofType != "Groth16BN128" {
		t.Fatalf("l2oa deploy mismatch: %+v", op.L2OADeploy)
	}

	if _, err := Deserialize(deploy, "application/json", Action{Kind: ActionTransfer}); err != ErrNotRecognized {
		t.Fatalf("l2oa deploy via ActionTransfer = %v, want ErrNotRecognized", err)
	}
}

func TestDeserializeUnknownProtocolRejected(t *testing.T) {
	body := []byte(pad(`{"p":"brc-99","op":"mint","tick":"ordi","amt":"1000"}`))
	if _, err := Deserialize(body, "text/plain", Action{Kind: ActionNew}); err != ErrNotRecognized {
		t.Fatalf("got %v, want ErrNotRecognized", err)
	}
}

func TestDeserializeDuplicateFieldsKeepLastOccurrence(t *testing.T) {
	body := []byte(pad(`{"p":"brc-20","op":"deploy","tick":"smol","max":"100","lim":"10","dec":"17","max":"300"}`))
	op, err := Deserialize(body, "text/plain", Action{Kind: ActionNew})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if op.Deploy.MaxSupply != "300" {
		t.Fatalf("max = %q, want last occurrence 300", op.Deploy.MaxSupply)
	}
}
