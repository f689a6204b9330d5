package arbitrum

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/entity"
)

const (
	Outbox = "Outbox"
	Rollup = "Rollup"
	Bridge = "Bridge"
)

// Nitro precompiles, identical on every Arbitrum chain.
var (
	ArbSysAddress        = common.HexToAddress("0x0000000000000000000000000000000000000064")
	NodeInterfaceAddress = common.HexToAddress("0x00000000000000000000000000000000000000C8")
)

// DefaultContracts lists the L1 contracts of public Arbitrum chains.
// Local testnets (412346) have no fixed deployment and must configure the outbox explicitly.
var DefaultContracts = map[entity.ChainID]map[string]common.Address{
	// Arbitrum One
	42161: {
		Outbox: common.HexToAddress("0x0B9857ae2D4A3DBe74ffE1d7DF045bb7F96E4840"),
		Rollup: common.HexToAddress("0x5eF0D09d1E6204141B4d37530808eD19f60FBa35"),
		Bridge: common.HexToAddress("0x8315177aB297bA92A06054cE80a67Ed4DBd7ed3a"),
	},
	// Arbitrum goerli
	421613: {
		Outbox: common.HexToAddress("0x45Af9Ed1D03703e480CE7d328fB684bb67DA5049"),
		Rollup: common.HexToAddress("0x45e5cAea8768F42B385A366D3551Ad1e0cbFAb17"),
		Bridge: common.HexToAddress("0xaf4159A80B6Cc41ED517DB1c453d1Ef5C2e4dB72"),
	},
}
