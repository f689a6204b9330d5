package ovm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrEmptyTree    = errors.New("merkle tree has no leaves")
	ErrLeafNotFound = errors.New("leaf index is out of range")

	// keccak256(bytes32(0)) pads every state batch tree up to a power of two leaves.
	emptyLeaf = [32]byte(crypto.Keccak256Hash(make([]byte, 32)))
)

func padLeaves(leaves [][32]byte) [][32]byte {
	size := 1
	for size < len(leaves) {
		size <<= 1
	}
	res := make([][32]byte, size)
	copy(res, leaves)
	for i := len(leaves); i < size; i++ {
		res[i] = emptyLeaf
	}
	return res
}

func hashPair(left, right [32]byte) [32]byte {
	return [32]byte(crypto.Keccak256Hash(left[:], right[:]))
}

// MerkleRoot computes the root of a state batch tree.
func MerkleRoot(leaves [][32]byte) ([32]byte, error) {
	if len(leaves) == 0 {
		return [32]byte{}, ErrEmptyTree
	}
	level := padLeaves(leaves)
	for len(level) > 1 {
		next := make([][32]byte, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0], nil
}

// MerkleProof returns the sibling path of leaves[index], ordered from the leaf level up.
func MerkleProof(leaves [][32]byte, index int) ([][32]byte, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	if index < 0 || index >= len(leaves) {
		return nil, fmt.Errorf("%w: %d of %d", ErrLeafNotFound, index, len(leaves))
	}
	level := padLeaves(leaves)
	var siblings [][32]byte
	for len(level) > 1 {
		siblings = append(siblings, level[index^1])
		next := make([][32]byte, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
		index /= 2
	}
	return siblings, nil
}

// VerifyMerkleProof recomputes the root from a leaf and its sibling path.
func VerifyMerkleProof(root, leaf [32]byte, index int, siblings [][32]byte) bool {
	h := leaf
	for _, sibling := range siblings {
		if index&1 == 0 {
			h = hashPair(h, sibling)
		} else {
			h = hashPair(sibling, h)
		}
		index >>= 1
	}
	return h == root
}
