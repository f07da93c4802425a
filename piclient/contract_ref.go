package piclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ContractRef binds one contract address and ABI to an RPC endpoint. It is
// never modified after construction and may be shared between goroutines.
type ContractRef struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	endpoint string
	close    func()
}

func NewContractRef(address common.Address, contractABI abi.ABI, caller bind.ContractCaller) *ContractRef {
	return &ContractRef{
		address:  address,
		abi:      contractABI,
		contract: bind.NewBoundContract(address, contractABI, caller, nil, nil),
		close:    func() {},
	}
}

func (r *ContractRef) Address() common.Address {
	return r.address
}

func (r *ContractRef) ABI() abi.ABI {
	return r.abi
}

// Endpoint is the seed the reference was dialed through, empty for
// references built over a caller.
func (r *ContractRef) Endpoint() string {
	return r.endpoint
}

func (r *ContractRef) Close() {
	r.close()
}

type chainClient interface {
	bind.ContractCaller
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

func dialEth(ctx context.Context, seed string) (chainClient, error) {
	return ethclient.DialContext(ctx, seed)
}

// Dial walks seeds in order and binds the first endpoint that answers
// eth_chainId. It only fails when no seed answers.
func Dial(ctx context.Context, seeds []string, address common.Address, contractABI abi.ABI, log *zap.Logger) (*ContractRef, error) {
	return dial(ctx, seeds, address, contractABI, log, dialEth)
}

func dial(ctx context.Context, seeds []string, address common.Address, contractABI abi.ABI, log *zap.Logger, newClient func(context.Context, string) (chainClient, error)) (*ContractRef, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(seeds) == 0 {
		return nil, errors.New("missing seeds")
	}
	var errs []error
	for _, seed := range seeds {
		cli, err := newClient(ctx, seed)
		if err != nil {
			log.Warn("can't dial seed", zap.String("seed", seed), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		chainID, err := cli.ChainID(ctx)
		if err != nil {
			cli.Close()
			log.Warn("seed not responding", zap.String("seed", seed), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		log.Info("connected to seed",
			zap.String("seed", seed),
			zap.Stringer("chainId", chainID),
			zap.Stringer("contract", address))
		ref := NewContractRef(address, contractABI, cli)
		ref.endpoint = seed
		ref.close = cli.Close
		return ref, nil
	}
	return nil, fmt.Errorf("can't initialize client from %d seeds: %w", len(seeds), errs[len(errs)-1])
}
