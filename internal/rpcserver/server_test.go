package rpcserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/rawblock/l2ordinals-indexer/internal/kv"
	"github.com/rawblock/l2ordinals-indexer/internal/state"
)

func newTestRouter(t *testing.T) (http.Handler, kv.Store) {
	t.Helper()
	store, err := kv.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	log := logrus.NewEntry(logrus.New())
	return NewRouter(store, log), store
}

func rpcCall(t *testing.T, h http.Handler, method string, params any) Response {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := Request{JSONRPC: "2.0", Method: method, Params: raw, ID: json.RawMessage("1")}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v (body %s)", err, w.Body.String())
	}
	return resp
}

func TestHandleUnknownMethod(t *testing.T) {
	h, _ := newTestRouter(t)
	resp := rpcCall(t, h, "not_a_real_method", []any{})
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("error = %+v, want code %d", resp.Error, codeMethodNotFound)
	}
}

func TestHandleBadParams(t *testing.T) {
	h, _ := newTestRouter(t)
	resp := rpcCall(t, h, "brc20_getTickInfo", []any{})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("error = %+v, want code %d", resp.Error, codeInvalidParams)
	}
}

func TestHandleGetTickInfoRoundTrip(t *testing.T) {
	h, store := newTestRouter(t)

	tick, err := state.ParseTick("test")
	if err != nil {
		t.Fatalf("parse tick: %v", err)
	}
	wb, err := store.BeginWrite()
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	info := state.TokenInfo{
		Tick:         tick.String(),
		Supply:       state.BigZero(),
		BurnedSupply: state.BigZero(),
		Minted:       state.BigZero(),
		LimitPerMint: state.BigZero(),
	}
	if err := state.PutTokenInfo(wb, state.ProtocolBRC20, tick, info); err != nil {
		t.Fatalf("put token info: %v", err)
	}
	if err := wb.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	resp := rpcCall(t, h, "brc20_getTickInfo", []string{"test"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.Result == nil {
		t.Fatal("expected a result")
	}
}

func TestHandleGetAllTickInfoEmpty(t *testing.T) {
	h, _ := newTestRouter(t)
	resp := rpcCall(t, h, "brc21_getAllTickInfo", []any{})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestHandleGetStateRootAtBlockUnknownHashTag(t *testing.T) {
	h, _ := newTestRouter(t)
	resp := rpcCall(t, h, "l2o_getStateRootAtBlock", []any{1, 1, "not_a_hash_family"})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("error = %+v, want code %d", resp.Error, codeInvalidParams)
	}
}

func TestHandleGetStateRootAtBlockZeroValue(t *testing.T) {
	h, _ := newTestRouter(t)
	resp := rpcCall(t, h, "l2o_getStateRootAtBlock", []any{1, 1, "sha256"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.Result == nil {
		t.Fatal("expected a (zero-value) state root result")
	}
}

func TestHandleInvalidRequestMissingMethod(t *testing.T) {
	h, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"jsonrpc":"2.0","id":1}`)))
	r.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, r)

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeInvalidRequest {
		t.Fatalf("error = %+v, want code %d", resp.Error, codeInvalidRequest)
	}
}
