package presenter

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/entity"
)

var formats = map[entity.ChainID]string{
	1:        "https://etherscan.io/tx/%s",
	5:        "https://goerli.etherscan.io/tx/%s",
	11155111: "https://sepolia.etherscan.io/tx/%s",
}

func txLink(chainID entity.ChainID, txHash common.Hash) string {
	if format, ok := formats[chainID]; ok {
		return fmt.Sprintf(format, txHash)
	}
	return txHash.String()
}
