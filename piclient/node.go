package piclient

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Node is a node record keyed by the output names the ABI declares.
// Unnamed outputs are keyed by their position.
type Node map[string]interface{}

func (n Node) Address(field string) (common.Address, bool) {
	v, ok := n[field].(common.Address)
	return v, ok
}

func (n Node) Uint(field string) (*big.Int, bool) {
	v, err := toBig(n[field])
	return v, err == nil
}

func (n Node) Bool(field string) (bool, bool) {
	v, ok := n[field].(bool)
	return v, ok
}

func (n Node) Text(field string) (string, bool) {
	v, ok := n[field].(string)
	return v, ok
}

func newNode(outputs abi.Arguments, values []interface{}) Node {
	// a single struct output is flattened into its fields
	if len(outputs) == 1 && outputs[0].Type.T == abi.TupleTy && len(values) == 1 {
		return structNode(values[0])
	}
	node := make(Node, len(values))
	for i, v := range values {
		name := strconv.Itoa(i)
		if i < len(outputs) && outputs[i].Name != "" {
			name = outputs[i].Name
		}
		node[name] = v
	}
	return node
}

func structNode(v interface{}) Node {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Node{"0": v}
	}
	rt := rv.Type()
	node := make(Node, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" {
			name = f.Name
		}
		node[name] = rv.Field(i).Interface()
	}
	return node
}
