package ovm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/omni/rollup-relayer/contract"
	"github.com/omni/rollup-relayer/entity"
)

// StorageSlot is the slot of L2ToL1MessagePasser.sentMessages that marks msg as sent.
func StorageSlot(msgData []byte) common.Hash {
	key := crypto.Keccak256(msgData, L2CrossDomainMessengerAddress.Bytes())
	return crypto.Keccak256Hash(key, make([]byte, 32))
}

func (m *Messenger) messageProof(ctx context.Context, msg *entity.BridgeMessage) (*contract.L2MessageInclusionProof, error) {
	batch, err := m.stateBatchForMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, fmt.Errorf("state root of block %d is not published yet", msg.BlockNumber)
	}

	tx, err := m.l1.TransactionByHash(ctx, batch.txHash)
	if err != nil {
		return nil, fmt.Errorf("can't get state batch tx %s: %w", batch.txHash, err)
	}
	roots, err := m.scc.UnpackAppendStateBatch(tx.Data())
	if err != nil {
		return nil, err
	}
	if uint64(len(roots)) != batch.header.BatchSize.Uint64() {
		return nil, fmt.Errorf("%w: batch %s has %d roots, expected %s",
			ErrMalformedEvent, batch.header.BatchIndex, len(roots), batch.header.BatchSize)
	}
	root, err := MerkleRoot(roots)
	if err != nil {
		return nil, err
	}
	if root != batch.header.BatchRoot {
		return nil, fmt.Errorf("%w: batch %s root mismatch", ErrMalformedEvent, batch.header.BatchIndex)
	}

	idx, _ := stateIndex(msg)
	leaf := int(idx - batch.header.PrevTotalElements.Uint64())
	siblings, err := MerkleProof(roots, leaf)
	if err != nil {
		return nil, err
	}

	_, msgData, err := MessageHash(msg)
	if err != nil {
		return nil, err
	}
	stateWitness, storageWitness, err := m.storageWitnesses(ctx, StorageSlot(msgData), msg.BlockNumber)
	if err != nil {
		return nil, err
	}

	return &contract.L2MessageInclusionProof{
		StateRoot:            roots[leaf],
		StateRootBatchHeader: batch.header,
		StateRootProof: contract.ChainInclusionProof{
			Index:    big.NewInt(int64(leaf)),
			Siblings: siblings,
		},
		StateTrieWitness:   stateWitness,
		StorageTrieWitness: storageWitness,
	}, nil
}

// storageWitnesses fetches the account and storage trie proofs of the message passer slot
// and RLP encodes them as lists of trie nodes.
func (m *Messenger) storageWitnesses(ctx context.Context, slot common.Hash, blockNumber uint64) ([]byte, []byte, error) {
	res, err := m.l2.GetProof(ctx, L2ToL1MessagePasserAddress, []string{slot.Hex()}, blockNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("can't get storage proof: %w", err)
	}
	if len(res.StorageProof) != 1 {
		return nil, nil, fmt.Errorf("%w: expected one storage proof, got %d", ErrMalformedEvent, len(res.StorageProof))
	}
	stateWitness, err := encodeTrieNodes(res.AccountProof)
	if err != nil {
		return nil, nil, fmt.Errorf("can't encode account proof: %w", err)
	}
	storageWitness, err := encodeTrieNodes(res.StorageProof[0].Proof)
	if err != nil {
		return nil, nil, fmt.Errorf("can't encode storage proof: %w", err)
	}
	return stateWitness, storageWitness, nil
}

func encodeTrieNodes(nodes []string) ([]byte, error) {
	decoded := make([][]byte, len(nodes))
	for i, node := range nodes {
		b, err := hexutil.Decode(node)
		if err != nil {
			return nil, err
		}
		decoded[i] = b
	}
	return rlp.EncodeToBytes(decoded)
}
