package signer_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/signer"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testAddress = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	target      = common.HexToAddress("0x25ace71c97B33Cc4729CF772ae268934F7ab5fA1")
)

func newClient(ctx context.Context) *ethclient.ClientMock {
	client := new(ethclient.ClientMock)
	client.On("ChainID").Return(uint64(1))
	client.On("EstimateGas", ctx, mock.Anything).Return(uint64(100000), nil)
	client.On("PendingNonceAt", ctx, testAddress).Return(uint64(7), nil)
	client.On("SuggestGasTipCap", ctx).Return(big.NewInt(2), nil)
	client.On("BlockNumber", ctx).Return(uint64(100), nil)
	client.On("HeaderByNumber", ctx, uint64(100)).Return(&types.Header{BaseFee: big.NewInt(10)}, nil)
	return client
}

func TestNewKeySignerFromHex(t *testing.T) {
	t.Parallel()

	s, err := signer.NewKeySignerFromHex(testKey, 1.2)
	require.NoError(t, err)
	require.Equal(t, testAddress, s.Address())

	_, err = signer.NewKeySignerFromHex(testKey, 0.5)
	require.ErrorIs(t, err, signer.ErrInvalidGasMultiplier)
	_, err = signer.NewKeySignerFromHex("", 1)
	require.Error(t, err)
}

func TestKeySigner_Transact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := signer.NewKeySignerFromHex(testKey, 1.5)
	require.NoError(t, err)

	client := newClient(ctx)
	client.On("SendTransaction", ctx, mock.Anything).Return(nil).Once()

	tx, err := s.Transact(ctx, client, target, []byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, uint64(7), tx.Nonce())
	require.Equal(t, uint64(150000), tx.Gas())
	require.Equal(t, big.NewInt(2), tx.GasTipCap())
	require.Equal(t, big.NewInt(22), tx.GasFeeCap())
	require.Equal(t, target, *tx.To())
	require.Equal(t, []byte{0x01, 0x02}, tx.Data())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), tx)
	require.NoError(t, err)
	require.Equal(t, testAddress, from)
	client.AssertCalled(t, "SendTransaction", ctx, tx)
}

func TestKeySigner_TransactEstimateError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := signer.NewKeySignerFromHex(testKey, 1)
	require.NoError(t, err)

	estimateErr := errors.New("execution reverted")
	client := new(ethclient.ClientMock)
	client.On("EstimateGas", ctx, mock.Anything).Return(uint64(0), estimateErr)

	_, err = s.Transact(ctx, client, target, nil)
	require.ErrorIs(t, err, estimateErr)
	client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
}

func TestKeySigner_TransactSerializesAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s1, err := signer.NewKeySignerFromHex(testKey, 1)
	require.NoError(t, err)
	s2, err := signer.NewKeySignerFromHex(testKey, 1)
	require.NoError(t, err)

	var inFlight, maxInFlight int32
	client := new(ethclient.ClientMock)
	client.On("ChainID").Return(uint64(1))
	client.On("EstimateGas", ctx, mock.Anything).Return(uint64(21000), nil).Run(func(mock.Arguments) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
	})
	client.On("PendingNonceAt", ctx, testAddress).Return(uint64(0), nil)
	client.On("SuggestGasTipCap", ctx).Return(big.NewInt(1), nil)
	client.On("BlockNumber", ctx).Return(uint64(1), nil)
	client.On("HeaderByNumber", ctx, uint64(1)).Return(&types.Header{}, nil)
	client.On("SendTransaction", ctx, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		atomic.AddInt32(&inFlight, -1)
	})

	var wg sync.WaitGroup
	for _, s := range []*signer.KeySigner{s1, s2, s1, s2} {
		wg.Add(1)
		go func(s *signer.KeySigner) {
			defer wg.Done()
			_, err := s.Transact(ctx, client, target, nil)
			require.NoError(t, err)
		}(s)
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestKeySigner_TransactSendError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := signer.NewKeySignerFromHex(testKey, 1)
	require.NoError(t, err)

	client := newClient(ctx)
	client.On("SendTransaction", ctx, mock.Anything).Return(ethereum.NotFound)

	_, err = s.Transact(ctx, client, target, nil)
	require.ErrorIs(t, err, ethereum.NotFound)
}
