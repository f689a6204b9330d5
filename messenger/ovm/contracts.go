package ovm

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/entity"
)

const (
	AddressManager            = "AddressManager"
	L1CrossDomainMessenger    = "L1CrossDomainMessenger"
	L1StandardBridge          = "L1StandardBridge"
	StateCommitmentChain      = "StateCommitmentChain"
	CanonicalTransactionChain = "CanonicalTransactionChain"
	BondManager               = "BondManager"
)

// L2 predeploys, identical on every OVM chain.
var (
	L2ToL1MessagePasserAddress    = common.HexToAddress("0x4200000000000000000000000000000000000000")
	L2CrossDomainMessengerAddress = common.HexToAddress("0x4200000000000000000000000000000000000007")
)

// DefaultContracts lists the L1 contract sets of known OVM chains. Any entry can be overridden per chain in the config.
var DefaultContracts = map[entity.ChainID]map[string]common.Address{
	// Optimism mainnet
	10: {
		AddressManager:         common.HexToAddress("0xdE1FCfB0851916CA5101820A69b13a4E276bd81F"),
		L1CrossDomainMessenger: common.HexToAddress("0x25ace71c97B33Cc4729CF772ae268934F7ab5fA1"),
		L1StandardBridge:       common.HexToAddress("0x99C9fc46f92E8a1c0deC1b1747d010903E884bE1"),
		StateCommitmentChain:   common.HexToAddress("0xBe5dAb4A2e9cd0F27300dB4aB94BeE3A233AEB19"),
	},
	// Optimism goerli
	420: {
		AddressManager:         common.HexToAddress("0xa6f73589243a6A7a9023b1Fa0651b1d89c177111"),
		L1CrossDomainMessenger: common.HexToAddress("0x5086d1eEF304eb5284A0f6720f79403b4e9bE294"),
		L1StandardBridge:       common.HexToAddress("0x636Af16bf2f682dD3109e60102b8E1A089FedAa8"),
		StateCommitmentChain:   common.HexToAddress("0x9c945aC97Baf48cB784AbBB61399beB71aF7A378"),
	},
	// Boba mainnet
	288: {
		AddressManager:            common.HexToAddress("0x8376ac6C3f73a25Dd994E0b0669ca7ee0C02F089"),
		L1CrossDomainMessenger:    common.HexToAddress("0x6D4528d192dB72E282265D6092F4B872f9Dff69e"),
		L1StandardBridge:          common.HexToAddress("0xdc1664458d2f0B6090bEa60A8793A4E66c2F1c00"),
		StateCommitmentChain:      common.HexToAddress("0xdE7355C971A5B733fe2133753Abd7e5441d441Ec"),
		CanonicalTransactionChain: common.HexToAddress("0xfBd2541e316948B259264c02f370eD088E04c3Db"),
		BondManager:               common.HexToAddress("0x60660e6CDEb423cf847dD11De4C473130D65b627"),
	},
	// Boba goerli
	2888: {
		AddressManager:            common.HexToAddress("0x6FF9c8FF8F0B6a0763a3030540c21aFC721A9148"),
		L1CrossDomainMessenger:    common.HexToAddress("0xA6fA0867F39f3A3af7433C8A43f23bf26Efd1a48"),
		L1StandardBridge:          common.HexToAddress("0xDBD71249Fe60c9f9bF581b3594734E295EAfA9b2"),
		StateCommitmentChain:      common.HexToAddress("0x7Bb4cfa36F9F3880e18a46B74bBb9B334F6600F3"),
		CanonicalTransactionChain: common.HexToAddress("0x8B0eF5250b5d6EfA877eAc15BBdfbD3C8069242F"),
		BondManager:               common.HexToAddress("0xF84979ADeb8D2Dd25f54cF8cBbB05C08eC188e11"),
	},
}
