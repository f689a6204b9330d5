package contract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var ErrUnexpectedOutput = errors.New("unexpected contract output")

// RevertData extracts raw revert data from an eth_call or eth_estimateGas error.
func RevertData(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	switch data := dataErr.ErrorData().(type) {
	case string:
		res, err := hexutil.Decode(data)
		if err != nil {
			return nil, false
		}
		return res, true
	case []byte:
		return data, true
	default:
		return nil, false
	}
}

func outputBool(values []interface{}) (bool, error) {
	if len(values) == 0 {
		return false, ErrUnexpectedOutput
	}
	res, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrUnexpectedOutput, values[0])
	}
	return res, nil
}

func outputBigInt(values []interface{}) (*big.Int, error) {
	if len(values) == 0 {
		return nil, ErrUnexpectedOutput
	}
	res, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: expected uint256, got %T", ErrUnexpectedOutput, values[0])
	}
	return res, nil
}
