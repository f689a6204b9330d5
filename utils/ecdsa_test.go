package utils_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/rollup-relayer/utils"
)

// Well-known hardhat account #0.
const (
	testKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestParsePrivateKey(t *testing.T) {
	t.Parallel()

	for _, input := range []string{testKey, "0x" + testKey, " 0x" + testKey + "\n"} {
		key, err := utils.ParsePrivateKey(input)
		require.NoError(t, err)
		require.Equal(t, common.HexToAddress(testAddress), utils.AddressFromKey(key))
	}

	_, err := utils.ParsePrivateKey("")
	require.ErrorIs(t, err, utils.ErrEmptyPrivateKey)
	_, err = utils.ParsePrivateKey("0x1234")
	require.Error(t, err)
}
