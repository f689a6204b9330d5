package arbitrum

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/omni/rollup-relayer/contract"
	"github.com/omni/rollup-relayer/contract/abi"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/relayer"
	"github.com/omni/rollup-relayer/signer"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrProofMismatch  = errors.New("outbox proof does not match the message")
)

// Messenger implements relayer.Messenger for Arbitrum Nitro chains.
//
// Status mapping:
//
//	outbox.isSpent(position)                         ALREADY_RELAYED
//	position < send count of the latest send root    READY_FOR_RELAY
//	otherwise                                        NOT_READY
//	no send root found within the L1 lookback window UNKNOWN
//
// The outbox reverts when the inner call fails, so a confirmed execution is always a successful one.
type Messenger struct {
	logger        logging.Logger
	env           *relayer.Env
	l1            ethclient.Client
	l2            ethclient.Client
	outbox        *contract.OutboxContract
	nodeInterface *contract.NodeInterfaceContract
	arbSys        *contract.Contract
}

var _ relayer.Messenger = (*Messenger)(nil)

func NewMessenger(env *relayer.Env) (relayer.Messenger, error) {
	outboxAddr, err := env.Contract(Outbox, DefaultContracts[env.ChainID])
	if err != nil {
		return nil, err
	}
	return &Messenger{
		logger:        env.Logger,
		env:           env,
		l1:            env.L1,
		l2:            env.L2,
		outbox:        contract.NewOutboxContract(env.L1, outboxAddr),
		nodeInterface: contract.NewNodeInterfaceContract(env.L2, NodeInterfaceAddress),
		arbSys:        contract.NewContract(env.L2, ArbSysAddress, abi.ArbSysABI),
	}, nil
}

func (m *Messenger) MessagesByTransaction(ctx context.Context, txHash common.Hash) ([]*entity.BridgeMessage, error) {
	receipt, err := m.l2.TransactionReceiptByHash(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("can't get L2 receipt: %w", err)
	}

	l2ToL1Tx := m.arbSys.EventID("L2ToL1Tx")
	var msgs []*entity.BridgeMessage
	for _, log := range receipt.Logs {
		if log.Address != ArbSysAddress || len(log.Topics) == 0 || log.Topics[0] != l2ToL1Tx {
			continue
		}
		msg, err := m.decodeL2ToL1Tx(log)
		if err != nil {
			return nil, err
		}
		msg.TxHash = txHash
		msg.Index = uint(len(msgs))
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (m *Messenger) decodeL2ToL1Tx(log *types.Log) (*entity.BridgeMessage, error) {
	event, values, err := m.arbSys.ParseLog(log)
	if err != nil {
		return nil, fmt.Errorf("can't parse L2ToL1Tx log: %w", err)
	}
	if event != abi.L2ToL1Tx {
		return nil, fmt.Errorf("%w: unexpected event %q", ErrMalformedEvent, event)
	}
	caller, ok1 := values["caller"].(common.Address)
	destination, ok2 := values["destination"].(common.Address)
	hash, ok3 := values["hash"].(*big.Int)
	position, ok4 := values["position"].(*big.Int)
	arbBlockNum, ok5 := values["arbBlockNum"].(*big.Int)
	ethBlockNum, ok6 := values["ethBlockNum"].(*big.Int)
	timestamp, ok7 := values["timestamp"].(*big.Int)
	callvalue, ok8 := values["callvalue"].(*big.Int)
	data, ok9 := values["data"].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 || !ok8 || !ok9 {
		return nil, fmt.Errorf("%w: L2ToL1Tx in tx %s", ErrMalformedEvent, log.TxHash)
	}
	return &entity.BridgeMessage{
		SourceChainID: m.env.ChainID,
		TargetChainID: entity.ChainID(m.l1.ChainID()),
		BlockNumber:   arbBlockNum.Uint64(),
		Sender:        caller,
		Target:        destination,
		Data:          data,
		Value:         callvalue,
		Nonce:         position,
		Hash:          common.BigToHash(hash),
		L1BlockNumber: ethBlockNum.Uint64(),
		Timestamp:     timestamp.Uint64(),
	}, nil
}

func (m *Messenger) MessageStatus(ctx context.Context, msg *entity.BridgeMessage) (entity.MessageState, error) {
	spent, err := m.outbox.IsSpent(ctx, msg.Nonce)
	if err != nil {
		return entity.StateUnknown, err
	}
	if spent {
		return entity.StateAlreadyRelayed, nil
	}
	sendCount, ok, err := m.latestSendCount(ctx)
	if err != nil {
		return entity.StateUnknown, err
	}
	if !ok {
		m.logger.Warn("no SendRootUpdated event found within the L1 lookback window")
		return entity.StateUnknown, nil
	}
	if msg.Nonce.Uint64() < sendCount {
		return entity.StateReadyForRelay, nil
	}
	return entity.StateNotReady, nil
}

// latestSendCount returns the number of sends covered by the newest send root confirmed on L1.
// The count is read from the mixDigest of the L2 block the send root was computed at.
func (m *Messenger) latestSendCount(ctx context.Context) (uint64, bool, error) {
	head, err := m.l1.BlockNumber(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("can't get L1 head: %w", err)
	}
	from, to, maxSize := m.env.SearchRange(head)
	log, err := ethclient.FindLatestLog(ctx, m.l1, ethereum.FilterQuery{
		Addresses: []common.Address{m.outbox.Address()},
		Topics:    [][]common.Hash{{m.outbox.EventID("SendRootUpdated")}},
	}, from, to, maxSize)
	if err != nil {
		return 0, false, err
	}
	if log == nil {
		return 0, false, nil
	}
	if len(log.Topics) != 3 {
		return 0, false, fmt.Errorf("%w: SendRootUpdated in tx %s", ErrMalformedEvent, log.TxHash)
	}
	sendRoot, blockHash := log.Topics[1], log.Topics[2]
	header, err := m.l2.HeaderByHash(ctx, blockHash)
	if err != nil {
		return 0, false, fmt.Errorf("can't get L2 block %s: %w", blockHash, err)
	}
	if len(header.Extra) == common.HashLength && !bytes.Equal(header.Extra, sendRoot.Bytes()) {
		return 0, false, fmt.Errorf("%w: send root of L2 block %s differs from the confirmed one", ErrMalformedEvent, blockHash)
	}
	return binary.BigEndian.Uint64(header.MixDigest[:8]), true, nil
}

func (m *Messenger) Submit(ctx context.Context, msg *entity.BridgeMessage, s signer.Signer) (*relayer.SubmitResult, error) {
	sendCount, ok, err := m.latestSendCount(ctx)
	if err != nil {
		return nil, err
	}
	position := msg.Nonce.Uint64()
	if !ok || position >= sendCount {
		return nil, fmt.Errorf("send %d is not covered by a confirmed send root yet", position)
	}
	proof, err := m.nodeInterface.ConstructOutboxProof(ctx, sendCount, position)
	if err != nil {
		return nil, err
	}
	if proof.Send != msg.Hash {
		return nil, fmt.Errorf("%w: send %d has hash %s, expected %s", ErrProofMismatch, position, proof.Send, msg.Hash)
	}

	data, err := m.outbox.PackExecuteTransaction(&contract.ExecuteTransactionArgs{
		Proof:       proof.Proof,
		Index:       msg.Nonce,
		L2Sender:    msg.Sender,
		To:          msg.Target,
		L2Block:     new(big.Int).SetUint64(msg.BlockNumber),
		L1Block:     new(big.Int).SetUint64(msg.L1BlockNumber),
		L2Timestamp: new(big.Int).SetUint64(msg.Timestamp),
		Value:       msg.Value,
		Data:        msg.Data,
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.Transact(ctx, m.l1, m.outbox.Address(), data)
	if err != nil {
		if revert, ok := m.outbox.UnpackRevert(err); ok {
			if revert.Name == "AlreadySpent" {
				return &relayer.SubmitResult{Outcome: relayer.OutcomeAlreadyRelayed}, nil
			}
			m.logger.WithField("revert", revert.Name).Debug("executeTransaction reverted")
		}
		spent, checkErr := m.outbox.IsSpent(ctx, msg.Nonce)
		if checkErr == nil && spent {
			return &relayer.SubmitResult{Outcome: relayer.OutcomeAlreadyRelayed}, nil
		}
		return nil, fmt.Errorf("can't submit executeTransaction: %w", err)
	}
	return &relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: tx.Hash()}, nil
}

func (m *Messenger) executedFilter(msg *entity.BridgeMessage) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{m.outbox.Address()},
		Topics: [][]common.Hash{
			{m.outbox.EventID("OutBoxTransactionExecuted")},
			{common.BytesToHash(msg.Target.Bytes())},
			{common.BytesToHash(msg.Sender.Bytes())},
		},
	}
}

func (m *Messenger) isExecutionOf(log *types.Log, msg *entity.BridgeMessage) bool {
	event, values, err := m.outbox.ParseLog(log)
	if err != nil || event != abi.OutBoxTransactionExecuted {
		return false
	}
	index, ok := values["transactionIndex"].(*big.Int)
	return ok && index.Cmp(msg.Nonce) == 0
}

func (m *Messenger) FindRelay(ctx context.Context, msg *entity.BridgeMessage) (common.Hash, error) {
	head, err := m.l1.BlockNumber(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't get L1 head: %w", err)
	}
	from, to, maxSize := m.env.RelayRange(head)
	log, err := ethclient.FindLatestMatchingLog(ctx, m.l1, m.executedFilter(msg), from, to, maxSize, func(log *types.Log) bool {
		return m.isExecutionOf(log, msg)
	})
	if err != nil {
		return common.Hash{}, err
	}
	if log == nil {
		return common.Hash{}, fmt.Errorf("OutBoxTransactionExecuted(%s): %w", msg.Nonce, relayer.ErrRelayTxNotFound)
	}
	return log.TxHash, nil
}

func (m *Messenger) CheckRelayReceipt(msg *entity.BridgeMessage, receipt *types.Receipt) error {
	for _, log := range receipt.Logs {
		if log.Address == m.outbox.Address() && m.isExecutionOf(log, msg) {
			return nil
		}
	}
	return fmt.Errorf("no OutBoxTransactionExecuted(%s) in tx %s: %w", msg.Nonce, receipt.TxHash, relayer.ErrRelayExecutionFailed)
}
