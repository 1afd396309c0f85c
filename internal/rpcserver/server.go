// Package rpcserver exposes the indexer's state tables over a single JSON-RPC
// 2.0 POST endpoint, grounded on l2o_indexer/src/rpc_server.rs's method
// surface (one big match over RequestParams) and the teacher's
// internal/api/routes.go gin wiring idiom (gin.Default(), a handler struct
// holding its read-only dependencies, route groups registered in
// SetupRouter) in place of the reduction's raw hyper accept loop.
package rpcserver

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rawblock/l2ordinals-indexer/internal/kv"
)

// JSON-RPC 2.0 error codes, per SPEC_FULL.md 4.J.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeApplicationErr = -32000
)

// Request is one JSON-RPC 2.0 call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// Response is one JSON-RPC 2.0 reply; exactly one of Result/Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *errorData `json:"data,omitempty"`
}

// errorData carries the ErrorKind string for application errors, matching
// SPEC_FULL.md 4.J's "custom payload carrying the ErrorKind string".
type errorData struct {
	Kind string `json:"kind,omitempty"`
}

// Handler dispatches JSON-RPC calls against a read-only view of Store. It
// holds no other mutable state, matching 4.J's "each method opens a read
// transaction ... performs the lookup" contract.
type Handler struct {
	Store kv.Store
	Log   *logrus.Entry
}

// NewRouter builds the gin engine exposing Handler at a single POST route,
// following SetupRouter's construction shape in the teacher's routes.go.
func NewRouter(store kv.Store, log *logrus.Entry) *gin.Engine {
	h := &Handler{Store: store, Log: log}
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/", h.handle)
	return r
}

func (h *Handler) handle(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, Response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: err.Error()}})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeInvalidRequest, Message: "not a JSON-RPC 2.0 request"}})
		return
	}

	fn, ok := methodTable[req.Method]
	if !ok {
		c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}})
		return
	}

	rt, err := h.Store.BeginRead()
	if err != nil {
		c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeApplicationErr, Message: err.Error()}})
		return
	}
	defer rt.Close()

	result, err := fn(rt, req.Params)
	if err != nil {
		if pe, ok := err.(*paramsError); ok {
			c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeInvalidParams, Message: pe.Error()}})
			return
		}
		c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: codeApplicationErr, Message: err.Error(), Data: &errorData{Kind: "Ledger"}}})
		return
	}
	c.JSON(http.StatusOK, Response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// paramsError marks a request whose params didn't match the method's
// expected shape, mapped to JSON-RPC's -32602.
type paramsError struct{ reason string }

func (e *paramsError) Error() string { return e.reason }

func badParams(reason string) error { return &paramsError{reason: reason} }

// methodFunc is the shape every dispatch-table entry satisfies: given the
// raw params array and a read transaction, produce a JSON-marshalable
// result.
type methodFunc func(r kv.Reader, params json.RawMessage) (any, error)

// decodeParams unmarshals the method's JSON-RPC params array (or object)
// into dst, rejecting anything that doesn't decode, per 4.J's -32602.
func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return badParams("missing params")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return badParams(err.Error())
	}
	return nil
}

var methodTable map[string]methodFunc

func init() {
	methodTable = map[string]methodFunc{
		"l2o_getLastBlockInscription":           handleGetLastBlockInscription,
		"l2o_getDeployInscription":               handleGetDeployInscription,
		"l2o_getStateRootAtBlock":                handleGetStateRootAtBlock,
		"l2o_getMerkleProofStateRootAtBlock":     handleGetMerkleProofStateRootAtBlock,
		"l2o_getSuperchainStateRootAtBlock":       handleGetSuperchainStateRootAtBlock,
		"brc20_getTickInfo":                       brc20(handleGetTickInfo),
		"brc21_getTickInfo":                       brc21(handleGetTickInfo),
		"brc20_getAllTickInfo":                    brc20(handleGetAllTickInfo),
		"brc21_getAllTickInfo":                    brc21(handleGetAllTickInfo),
		"brc20_getBalanceByAddress":               brc20(handleGetBalanceByAddress),
		"brc21_getBalanceByAddress":               brc21(handleGetBalanceByAddress),
		"brc20_getAllBalanceByAddress":             brc20(handleGetAllBalanceByAddress),
		"brc21_getAllBalanceByAddress":             brc21(handleGetAllBalanceByAddress),
		"brc20_transactionIdToTransactionReceipt":  brc20(handleTransactionReceipt),
		"brc21_transactionIdToTransactionReceipt":  brc21(handleTransactionReceipt),
		"brc20_getTickTransferableByAddress":       brc20(handleGetTickTransferableByAddress),
		"brc21_getTickTransferableByAddress":       brc21(handleGetTickTransferableByAddress),
		"brc20_getAllTransferableByAddress":        brc20(handleGetAllTransferableByAddress),
		"brc21_getAllTransferableByAddress":        brc21(handleGetAllTransferableByAddress),
		"brc20_transferableAssetsOnOutputWithSatpoints": brc20(handleTransferableAssetsOnOutput),
		"brc21_transferableAssetsOnOutputWithSatpoints": brc21(handleTransferableAssetsOnOutput),
	}
}
