// Package piclient reads the Pi Network registry contract over an EVM
// JSON-RPC endpoint.
//
// Every query returns a maybe.Maybe. A failed call of any kind (transport,
// decoding, revert, missing contract code) is logged once and comes back as
// an absent result carrying the error; it is never returned as a Go error and
// never retried.
package piclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ZhangTao1596/pi-network-client/maybe"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

type Accessor struct {
	ref     *ContractRef
	log     *zap.Logger
	timeout time.Duration
	block   *big.Int
}

type Option func(*Accessor)

// WithTimeout bounds every call. Zero leaves deadlines to the caller's
// context and the transport.
func WithTimeout(d time.Duration) Option {
	return func(a *Accessor) {
		a.timeout = d
	}
}

// AtBlock pins reads to a block number instead of the latest block.
func AtBlock(number *big.Int) Option {
	return func(a *Accessor) {
		if number != nil {
			a.block = new(big.Int).Set(number)
		}
	}
}

func NewAccessor(ref *ContractRef, log *zap.Logger, opts ...Option) *Accessor {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Accessor{
		ref: ref,
		log: log.With(zap.Stringer("contract", ref.Address())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Accessor) GetNodeCount(ctx context.Context) maybe.Maybe[uint64] {
	return call(ctx, a, MethodGetNodeCount, func(out []interface{}) (uint64, error) {
		v, err := single(out)
		if err != nil {
			return 0, err
		}
		count, err := toBig(v)
		if err != nil {
			return 0, err
		}
		if count.Sign() < 0 || !count.IsUint64() {
			return 0, fmt.Errorf("node count %s out of range", count)
		}
		return count.Uint64(), nil
	})
}

func (a *Accessor) GetNodeByAddress(ctx context.Context, nodeAddress common.Address) maybe.Maybe[Node] {
	outputs := a.ref.ABI().Methods[MethodGetNodeByAddress].Outputs
	return call(ctx, a, MethodGetNodeByAddress, func(out []interface{}) (Node, error) {
		if len(out) == 0 {
			return nil, errors.New("empty node record")
		}
		return newNode(outputs, out), nil
	}, nodeAddress)
}

func (a *Accessor) GetPiBalance(ctx context.Context, userAddress common.Address) maybe.Maybe[*big.Int] {
	return call(ctx, a, MethodGetPiBalance, func(out []interface{}) (*big.Int, error) {
		v, err := single(out)
		if err != nil {
			return nil, err
		}
		return toBig(v)
	}, userAddress)
}

func (a *Accessor) IsNodeActive(ctx context.Context, nodeAddress common.Address) maybe.Maybe[bool] {
	return call(ctx, a, MethodIsNodeActive, func(out []interface{}) (bool, error) {
		v, err := single(out)
		if err != nil {
			return false, err
		}
		active, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("unexpected %T for bool", v)
		}
		return active, nil
	}, nodeAddress)
}

func call[T any](ctx context.Context, a *Accessor, method string, decode func([]interface{}) (T, error), params ...interface{}) maybe.Maybe[T] {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	opts := &bind.CallOpts{Context: ctx, BlockNumber: a.block}
	var (
		out []interface{}
		v   T
	)
	err := a.ref.contract.Call(opts, &out, method, params...)
	if err == nil {
		v, err = decode(out)
	}
	if err != nil {
		err = fmt.Errorf("can't call %s: %w", method, err)
		a.log.Error("contract call failed", zap.String("method", method), zap.Error(err))
		return maybe.Nothing[T](err)
	}
	return maybe.Just(v)
}

func single(out []interface{}) (interface{}, error) {
	if len(out) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(out))
	}
	return out[0], nil
}

func toBig(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil integer")
		}
		return new(big.Int).Set(n), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	default:
		return nil, fmt.Errorf("unexpected %T for integer", v)
	}
}
