package relayer

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sethvargo/go-retry"

	"github.com/omni/rollup-relayer/entity"
)

// RelayWhenReady re-invokes Relay every interval while it fails with a retryable error,
// for at most maxWait (unbounded when zero).
func (r *Relayer) RelayWhenReady(
	ctx context.Context, chainID entity.ChainID, txHash common.Hash, interval, maxWait time.Duration,
) (*entity.RelayReceipt, error) {
	backoff := retry.NewConstant(interval)
	if maxWait > 0 {
		backoff = retry.WithMaxDuration(maxWait, backoff)
	}

	var receipt *entity.RelayReceipt
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := r.Relay(ctx, chainID, txHash)
		if err != nil {
			if IsRetryable(err) {
				r.logger.WithError(err).Debugf("will retry relay in %s", interval)
				return retry.RetryableError(err)
			}
			return err
		}
		receipt = res
		return nil
	})
	return receipt, err
}
