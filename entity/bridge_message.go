package entity

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

type ChainID uint64

func (id ChainID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// BridgeMessage is an L2 to L1 message emitted by a single L2 transaction.
// Fields that a chain family does not use are left zero.
type BridgeMessage struct {
	SourceChainID ChainID
	TargetChainID ChainID
	TxHash        common.Hash
	Index         uint
	BlockNumber   uint64
	Sender        common.Address
	Target        common.Address
	Data          []byte
	Value         *big.Int
	Nonce         *big.Int
	GasLimit      *big.Int
	Hash          common.Hash
	L1BlockNumber uint64
	Timestamp     uint64
}

type MessageID struct {
	SourceChainID ChainID
	TxHash        common.Hash
	Index         uint
}

func (id MessageID) String() string {
	return fmt.Sprintf("%s:%s:%d", id.SourceChainID, id.TxHash, id.Index)
}

func (m *BridgeMessage) ID() MessageID {
	return MessageID{
		SourceChainID: m.SourceChainID,
		TxHash:        m.TxHash,
		Index:         m.Index,
	}
}
