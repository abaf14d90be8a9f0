package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrABI is returned for malformed ABI data.
var ErrABI = errors.New("ledger: malformed abi data")

var stringsArgs = func() abi.Arguments {
	t, err := abi.NewType("string[]", "", nil)
	if err != nil {
		panic(fmt.Sprintf("ledger: string[] type: %v", err))
	}
	return abi.Arguments{{Type: t}}
}()

// EncodeStrings returns the contract ABI encoding of a single string[]
// argument.
func EncodeStrings(ss []string) []byte {
	if ss == nil {
		ss = []string{}
	}
	out, err := stringsArgs.Pack(ss)
	if err != nil {
		// a []string always packs as string[]
		panic(fmt.Sprintf("ledger: pack strings: %v", err))
	}
	return out
}

// DecodeStrings parses data produced by EncodeStrings.
func DecodeStrings(data []byte) ([]string, error) {
	res, err := stringsArgs.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrABI, err)
	}
	if len(res) != 1 {
		return nil, fmt.Errorf("%w: %d values", ErrABI, len(res))
	}
	ss, ok := res[0].([]string)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected %T", ErrABI, res[0])
	}
	return ss, nil
}
