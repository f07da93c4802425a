package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"

	"github.com/ZhangTao1596/pi-network-client/config"
	"github.com/ZhangTao1596/pi-network-client/maybe"
	"github.com/ZhangTao1596/pi-network-client/piclient"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type querier interface {
	GetNodeCount(ctx context.Context) maybe.Maybe[uint64]
	GetNodeByAddress(ctx context.Context, nodeAddress common.Address) maybe.Maybe[piclient.Node]
	GetPiBalance(ctx context.Context, userAddress common.Address) maybe.Maybe[*big.Int]
	IsNodeActive(ctx context.Context, nodeAddress common.Address) maybe.Maybe[bool]
}

type options struct {
	configPath string
	asJSON     bool
}

type openFunc func(ctx context.Context, opts *options) (querier, func(), error)

func main() {
	cmd := newRootCommand(openAccessor)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func openAccessor(ctx context.Context, opts *options) (querier, func(), error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, nil, fmt.Errorf("can't create logger: %w", err)
	}
	var cfg *config.Config
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("can't load config: %w", err)
	}
	contractABI, err := piclient.LoadABI(cfg.ABI)
	if err != nil {
		return nil, nil, fmt.Errorf("can't load abi: %w", err)
	}
	ref, err := piclient.Dial(ctx, cfg.Seeds, cfg.Contract, contractABI, log)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		ref.Close()
		_ = log.Sync()
	}
	return piclient.NewAccessor(ref, log, piclient.WithTimeout(cfg.CallTimeout())), closer, nil
}

func newRootCommand(open openFunc) *cobra.Command {
	opts := new(options)
	root := &cobra.Command{
		Use:          "piquery",
		Short:        "reads the Pi Network registry contract",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path of a JSON config file, environment is used when empty")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")

	run := func(query func(ctx context.Context, q querier, args []string) (interface{}, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			q, closer, err := open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closer()
			v, err := query(cmd.Context(), q, args)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "absent: %v\n", err)
				return err
			}
			return printResult(cmd.OutOrStdout(), v, opts.asJSON)
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "returns the number of registered nodes",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, q querier, _ []string) (interface{}, error) {
			return present(q.GetNodeCount(ctx))
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "node <address>",
		Short: "returns the node registered at address",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, q querier, args []string) (interface{}, error) {
			return present(q.GetNodeByAddress(ctx, common.HexToAddress(args[0])))
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "balance <address>",
		Short: "returns the Pi balance of address",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, q querier, args []string) (interface{}, error) {
			return present(q.GetPiBalance(ctx, common.HexToAddress(args[0])))
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "active <address>",
		Short: "returns whether the node at address is active",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, q querier, args []string) (interface{}, error) {
			return present(q.IsNodeActive(ctx, common.HexToAddress(args[0])))
		}),
	})
	return root
}

func present[T any](m maybe.Maybe[T]) (interface{}, error) {
	v, ok := m.Value()
	if !ok {
		if m.Err() != nil {
			return nil, m.Err()
		}
		return nil, errors.New("no result")
	}
	return v, nil
}

func printResult(w io.Writer, v interface{}, asJSON bool) error {
	if asJSON {
		b, err := json.MarshalIndent(v, "", "\t")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	node, ok := v.(piclient.Node)
	if !ok {
		_, err := fmt.Fprintln(w, v)
		return err
	}
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s: %v\n", k, node[k]); err != nil {
			return err
		}
	}
	return nil
}
