package ovm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/contract"
	"github.com/omni/rollup-relayer/contract/abi"
	"github.com/omni/rollup-relayer/entity"
)

type stateBatch struct {
	header contract.ChainBatchHeader
	txHash common.Hash
}

func (b *stateBatch) contains(stateIndex uint64) bool {
	prev := b.header.PrevTotalElements.Uint64()
	return stateIndex >= prev && stateIndex < prev+b.header.BatchSize.Uint64()
}

// stateIndex maps an L2 block onto its state root index in the SCC; genesis has no committed root.
func stateIndex(msg *entity.BridgeMessage) (uint64, error) {
	if msg.BlockNumber == 0 {
		return 0, fmt.Errorf("%w: message %s in genesis block", ErrMalformedEvent, msg.ID())
	}
	return msg.BlockNumber - 1, nil
}

// stateBatchForMessage returns nil if the state root of the message block is not appended yet.
func (m *Messenger) stateBatchForMessage(ctx context.Context, msg *entity.BridgeMessage) (*stateBatch, error) {
	idx, err := stateIndex(msg)
	if err != nil {
		return nil, err
	}
	total, err := m.scc.TotalElements(ctx)
	if err != nil {
		return nil, err
	}
	if total <= idx {
		return nil, nil
	}
	batches, err := m.scc.TotalBatches(ctx)
	if err != nil {
		return nil, err
	}

	lo, hi := uint64(0), batches
	for lo < hi {
		mid := lo + (hi-lo)/2
		batch, err := m.stateBatch(ctx, mid)
		if err != nil {
			return nil, err
		}
		switch {
		case batch.contains(idx):
			return batch, nil
		case idx < batch.header.PrevTotalElements.Uint64():
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return nil, fmt.Errorf("state root %d is counted by the SCC but no batch contains it", idx)
}

func (m *Messenger) stateBatch(ctx context.Context, index uint64) (*stateBatch, error) {
	if batch, ok := m.batches[index]; ok {
		return batch, nil
	}
	logs, err := m.l1.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(m.startBlock()),
		Addresses: []common.Address{m.scc.Address()},
		Topics: [][]common.Hash{
			{m.scc.EventID("StateBatchAppended")},
			{common.BigToHash(new(big.Int).SetUint64(index))},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("can't get StateBatchAppended(%d) logs: %w", index, err)
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("%w: StateBatchAppended(%d) not found", ErrMalformedEvent, index)
	}
	log := logs[len(logs)-1]
	event, values, err := m.scc.ParseLog(&log)
	if err != nil {
		return nil, fmt.Errorf("can't parse StateBatchAppended log: %w", err)
	}
	batchRoot, ok1 := values["_batchRoot"].([32]byte)
	batchSize, ok2 := values["_batchSize"].(*big.Int)
	prevTotal, ok3 := values["_prevTotalElements"].(*big.Int)
	extraData, ok4 := values["_extraData"].([]byte)
	if event != abi.StateBatchAppended || !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("%w: StateBatchAppended(%d) in tx %s", ErrMalformedEvent, index, log.TxHash)
	}
	batch := &stateBatch{
		header: contract.ChainBatchHeader{
			BatchIndex:        new(big.Int).SetUint64(index),
			BatchRoot:         batchRoot,
			BatchSize:         batchSize,
			PrevTotalElements: prevTotal,
			ExtraData:         extraData,
		},
		txHash: log.TxHash,
	}
	m.batches[index] = batch
	return batch, nil
}

func (m *Messenger) startBlock() uint64 {
	if m.env.L1Chain == nil {
		return 0
	}
	return m.env.L1Chain.StartBlock
}
