package ethclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

type BlocksRange struct {
	From uint64
	To   uint64
}

func SplitBlockRange(fromBlock uint64, toBlock uint64, maxSize uint64) []*BlocksRange {
	batches := make([]*BlocksRange, 0, 10)
	for fromBlock <= toBlock {
		batchToBlock := fromBlock + maxSize - 1
		if batchToBlock > toBlock {
			batchToBlock = toBlock
		}
		batches = append(batches, &BlocksRange{
			From: fromBlock,
			To:   batchToBlock,
		})
		fromBlock += maxSize
	}
	return batches
}

// FindLatestLog scans [fromBlock, toBlock] backwards in chunks of at most maxSize
// blocks and returns the newest matching log. It returns nil if nothing matches.
func FindLatestLog(ctx context.Context, client Client, q ethereum.FilterQuery, fromBlock, toBlock, maxSize uint64) (*types.Log, error) {
	return FindLatestMatchingLog(ctx, client, q, fromBlock, toBlock, maxSize, nil)
}

// FindLatestMatchingLog is FindLatestLog with an extra match predicate applied to every log.
// A nil match accepts all logs. The scan stops at the first chunk holding a match.
func FindLatestMatchingLog(ctx context.Context, client Client, q ethereum.FilterQuery, fromBlock, toBlock, maxSize uint64, match func(*types.Log) bool) (*types.Log, error) {
	ranges := SplitBlockRange(fromBlock, toBlock, maxSize)
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		q.FromBlock = new(big.Int).SetUint64(r.From)
		q.ToBlock = new(big.Int).SetUint64(r.To)
		logs, err := client.FilterLogs(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("can't filter logs in range %d-%d: %w", r.From, r.To, err)
		}
		for j := len(logs) - 1; j >= 0; j-- {
			if match == nil || match(&logs[j]) {
				latest := logs[j]
				return &latest, nil
			}
		}
	}
	return nil, nil
}
