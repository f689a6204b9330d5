package contract

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/rollup-relayer/contract/abi"
	"github.com/omni/rollup-relayer/ethclient"
)

type ChainBatchHeader struct {
	BatchIndex        *big.Int
	BatchRoot         [32]byte
	BatchSize         *big.Int
	PrevTotalElements *big.Int
	ExtraData         []byte
}

type ChainInclusionProof struct {
	Index    *big.Int
	Siblings [][32]byte
}

type L2MessageInclusionProof struct {
	StateRoot            [32]byte
	StateRootBatchHeader ChainBatchHeader
	StateRootProof       ChainInclusionProof
	StateTrieWitness     []byte
	StorageTrieWitness   []byte
}

type L1MessengerContract struct {
	*Contract
}

func NewL1MessengerContract(client ethclient.Client, addr common.Address) *L1MessengerContract {
	return &L1MessengerContract{NewContract(client, addr, abi.OVML1MessengerABI)}
}

func (c *L1MessengerContract) SuccessfulMessages(ctx context.Context, msgHash common.Hash) (bool, error) {
	res, err := c.Call(ctx, "successfulMessages", msgHash)
	if err != nil {
		return false, fmt.Errorf("cannot obtain message relay status: %w", err)
	}
	return outputBool(res)
}

func (c *L1MessengerContract) BlockedMessages(ctx context.Context, msgHash common.Hash) (bool, error) {
	res, err := c.Call(ctx, "blockedMessages", msgHash)
	if err != nil {
		return false, fmt.Errorf("cannot obtain message blocked status: %w", err)
	}
	return outputBool(res)
}

func (c *L1MessengerContract) PackRelayMessage(
	target, sender common.Address, message []byte, nonce *big.Int, proof *L2MessageInclusionProof,
) ([]byte, error) {
	return c.Pack("relayMessage", target, sender, message, nonce, *proof)
}

type StateCommitmentChainContract struct {
	*Contract
}

func NewStateCommitmentChainContract(client ethclient.Client, addr common.Address) *StateCommitmentChainContract {
	return &StateCommitmentChainContract{NewContract(client, addr, abi.StateCommitmentChainABI)}
}

func (c *StateCommitmentChainContract) TotalElements(ctx context.Context) (uint64, error) {
	res, err := c.Call(ctx, "getTotalElements")
	if err != nil {
		return 0, fmt.Errorf("cannot obtain total state elements: %w", err)
	}
	n, err := outputBigInt(res)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (c *StateCommitmentChainContract) TotalBatches(ctx context.Context) (uint64, error) {
	res, err := c.Call(ctx, "getTotalBatches")
	if err != nil {
		return 0, fmt.Errorf("cannot obtain total state batches: %w", err)
	}
	n, err := outputBigInt(res)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (c *StateCommitmentChainContract) InsideFraudProofWindow(ctx context.Context, header *ChainBatchHeader) (bool, error) {
	res, err := c.Call(ctx, "insideFraudProofWindow", *header)
	if err != nil {
		return false, fmt.Errorf("cannot check fraud proof window: %w", err)
	}
	return outputBool(res)
}

// UnpackAppendStateBatch decodes the state roots submitted by an appendStateBatch call.
func (c *StateCommitmentChainContract) UnpackAppendStateBatch(input []byte) ([][32]byte, error) {
	method, ok := c.abi.Methods["appendStateBatch"]
	if !ok || len(input) < 4 || !bytes.Equal(input[:4], method.ID) {
		return nil, fmt.Errorf("%w: not an appendStateBatch call", ErrUnexpectedOutput)
	}
	values, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("cannot decode appendStateBatch calldata: %w", err)
	}
	roots, ok := values[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("%w: expected bytes32[], got %T", ErrUnexpectedOutput, values[0])
	}
	return roots, nil
}
