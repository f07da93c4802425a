package piclient

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChainClient struct {
	*fakeCaller
	chainErr error
	closed   bool
}

func (c *fakeChainClient) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainErr != nil {
		return nil, c.chainErr
	}
	return big.NewInt(314159), nil
}

func (c *fakeChainClient) Close() {
	c.closed = true
}

func TestDialFallsThroughSeeds(t *testing.T) {
	clients := map[string]*fakeChainClient{
		"http://down": {fakeCaller: newFakeCaller(DefaultABI()), chainErr: errNetwork},
		"http://up":   {fakeCaller: newFakeCaller(DefaultABI()).answer(MethodGetNodeCount, big.NewInt(9))},
	}
	var dialed []string
	newClient := func(_ context.Context, seed string) (chainClient, error) {
		dialed = append(dialed, seed)
		if seed == "bad://" {
			return nil, errors.New("no known transport")
		}
		return clients[seed], nil
	}
	ref, err := dial(context.Background(), []string{"bad://", "http://down", "http://up"}, contractAddress, DefaultABI(), nil, newClient)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad://", "http://down", "http://up"}, dialed)
	assert.Equal(t, "http://up", ref.Endpoint())
	assert.Equal(t, contractAddress, ref.Address())
	assert.True(t, clients["http://down"].closed)

	a := NewAccessor(ref, nil)
	assert.Equal(t, uint64(9), a.GetNodeCount(context.Background()).OrElse(0))

	ref.Close()
	assert.True(t, clients["http://up"].closed)
}

func TestDialAllSeedsDown(t *testing.T) {
	newClient := func(_ context.Context, seed string) (chainClient, error) {
		return &fakeChainClient{fakeCaller: newFakeCaller(DefaultABI()), chainErr: errNetwork}, nil
	}
	_, err := dial(context.Background(), []string{"http://a", "http://b"}, contractAddress, DefaultABI(), zap.NewNop(), newClient)
	assert.ErrorIs(t, err, errNetwork)

	_, err = dial(context.Background(), nil, contractAddress, DefaultABI(), nil, newClient)
	assert.Error(t, err)
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newRPCServer serves eth_chainId and answers eth_call through caller.
func newRPCServer(t *testing.T, caller *fakeCaller) (*httptest.Server, *int32) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_chainId":
			resp["result"] = "0x4cb2f"
		case "eth_getCode":
			resp["result"] = hexutil.Bytes(caller.code)
		case "eth_call":
			var arg struct {
				Data  hexutil.Bytes `json:"data"`
				Input hexutil.Bytes `json:"input"`
			}
			if err := json.Unmarshal(req.Params[0], &arg); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data := arg.Data
			if len(data) == 0 {
				data = arg.Input
			}
			out, err := caller.callData(data)
			if err != nil {
				resp["error"] = map[string]interface{}{"code": 3, "message": err.Error()}
			} else {
				resp["result"] = hexutil.Bytes(out)
			}
		default:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestDialOverJSONRPC(t *testing.T) {
	caller := newFakeCaller(DefaultABI()).
		answer(MethodGetNodeCount, big.NewInt(5)).
		answer(MethodIsNodeActive, false)
	srv, requests := newRPCServer(t, caller)

	ref, err := Dial(context.Background(), []string{"http://127.0.0.1:1", srv.URL}, contractAddress, DefaultABI(), nil)
	require.NoError(t, err)
	defer ref.Close()
	assert.Equal(t, srv.URL, ref.Endpoint())

	a := NewAccessor(ref, nil)
	count, ok := a.GetNodeCount(context.Background()).Value()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), count)

	active, ok := a.IsNodeActive(context.Background(), nodeAddress).Value()
	assert.True(t, ok)
	assert.False(t, active)

	// getPiBalance has no answer, the node reports a revert
	before := atomic.LoadInt32(requests)
	m := a.GetPiBalance(context.Background(), ownerAddress)
	assert.False(t, m.Present())
	assert.Error(t, m.Err())
	assert.Equal(t, before+1, atomic.LoadInt32(requests))
}
