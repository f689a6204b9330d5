package entity

import "github.com/ethereum/go-ethereum/common"

type RelayReceipt struct {
	TxHash        common.Hash
	Confirmations uint64
	BlockNumber   uint64
	// Submitted is false when the message had been relayed before this invocation.
	Submitted bool
}
