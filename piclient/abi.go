package piclient

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	MethodGetNodeCount     = "getNodeCount"
	MethodGetNodeByAddress = "getNodeByAddress"
	MethodGetPiBalance     = "getPiBalance"
	MethodIsNodeActive     = "isNodeActive"
)

var requiredMethods = []string{
	MethodGetNodeCount,
	MethodGetNodeByAddress,
	MethodGetPiBalance,
	MethodIsNodeActive,
}

//go:embed PiNetworkContract.json
var defaultABI []byte

// DefaultABI returns the bundled PiNetworkContract ABI.
func DefaultABI() abi.ABI {
	a, err := ParseABI(bytes.NewReader(defaultABI))
	if err != nil {
		panic(fmt.Errorf("invalid bundled abi: %w", err))
	}
	return a
}

// LoadABI reads an ABI from path. An empty path yields the bundled ABI.
func LoadABI(path string) (abi.ABI, error) {
	if path == "" {
		return DefaultABI(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return abi.ABI{}, err
	}
	defer f.Close()
	return ParseABI(f)
}

// ParseABI accepts either a bare ABI array or a compiler artifact carrying the
// ABI under "abi".
func ParseABI(r io.Reader) (abi.ABI, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return abi.ABI{}, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return abi.ABI{}, errors.New("empty abi")
	}
	if b[0] == '{' {
		artifact := struct {
			ABI json.RawMessage `json:"abi"`
		}{}
		err = json.Unmarshal(b, &artifact)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("can't parse artifact: %w", err)
		}
		if len(artifact.ABI) == 0 {
			return abi.ABI{}, errors.New("artifact has no abi")
		}
		b = artifact.ABI
	}
	a, err := abi.JSON(bytes.NewReader(b))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("can't parse abi: %w", err)
	}
	for _, name := range requiredMethods {
		if _, ok := a.Methods[name]; !ok {
			return abi.ABI{}, fmt.Errorf("abi misses method %s", name)
		}
	}
	return a, nil
}
