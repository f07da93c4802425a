package piclient

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type answerFunc func(ctx context.Context, args []interface{}) ([]interface{}, error)

// fakeCaller answers eth_call with ABI encoded values, the way a deployed
// contract would.
type fakeCaller struct {
	abi     abi.ABI
	code    []byte
	answers map[string]answerFunc
	raw     map[string][]byte
	calls   int32
}

func newFakeCaller(a abi.ABI) *fakeCaller {
	return &fakeCaller{
		abi:     a,
		code:    []byte{0x60, 0x80},
		answers: make(map[string]answerFunc),
		raw:     make(map[string][]byte),
	}
}

func (f *fakeCaller) answer(method string, values ...interface{}) *fakeCaller {
	f.answers[method] = func(context.Context, []interface{}) ([]interface{}, error) {
		return values, nil
	}
	return f
}

func (f *fakeCaller) fail(method string, err error) *fakeCaller {
	f.answers[method] = func(context.Context, []interface{}) ([]interface{}, error) {
		return nil, err
	}
	return f
}

func (f *fakeCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return f.code, nil
}

func (f *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return f.call(ctx, call.Data)
}

func (f *fakeCaller) callData(data []byte) ([]byte, error) {
	return f.call(context.Background(), data)
}

func (f *fakeCaller) call(ctx context.Context, data []byte) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if len(data) < 4 {
		return nil, errors.New("missing selector")
	}
	method, err := f.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	if raw, ok := f.raw[method.Name]; ok {
		return raw, nil
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	answer, ok := f.answers[method.Name]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	values, err := answer(ctx, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(values...)
}

func (f *fakeCaller) callCount() int {
	return int(atomic.LoadInt32(&f.calls))
}
