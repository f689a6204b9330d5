package ovm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/rollup-relayer/contract"
	"github.com/omni/rollup-relayer/contract/abi"
	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/ethclient"
	"github.com/omni/rollup-relayer/logging"
	"github.com/omni/rollup-relayer/relayer"
	"github.com/omni/rollup-relayer/signer"
)

var ErrMalformedEvent = errors.New("malformed event")

// Messenger implements relayer.Messenger on top of the legacy OVM cross domain messengers
// used by Optimism before Bedrock and by Boba.
//
// Status mapping:
//
//	successfulMessages(hash)               ALREADY_RELAYED
//	blockedMessages(hash)                  RELAY_FAILED
//	state root not yet appended to the SCC NOT_READY
//	state batch inside fraud proof window  NOT_READY
//	otherwise                              READY_FOR_RELAY
//
// A relay whose inner call failed is not recorded in successfulMessages and may be replayed,
// so it classifies as READY_FOR_RELAY again.
type Messenger struct {
	logger      logging.Logger
	env         *relayer.Env
	l1          ethclient.Client
	l2          ethclient.Client
	l1Messenger *contract.L1MessengerContract
	scc         *contract.StateCommitmentChainContract
	l2Messenger *contract.Contract
	batches     map[uint64]*stateBatch
}

var _ relayer.Messenger = (*Messenger)(nil)

func NewMessenger(env *relayer.Env) (relayer.Messenger, error) {
	defaults := DefaultContracts[env.ChainID]
	l1MessengerAddr, err := env.Contract(L1CrossDomainMessenger, defaults)
	if err != nil {
		return nil, err
	}
	sccAddr, err := env.Contract(StateCommitmentChain, defaults)
	if err != nil {
		return nil, err
	}
	return &Messenger{
		logger:      env.Logger,
		env:         env,
		l1:          env.L1,
		l2:          env.L2,
		l1Messenger: contract.NewL1MessengerContract(env.L1, l1MessengerAddr),
		scc:         contract.NewStateCommitmentChainContract(env.L1, sccAddr),
		l2Messenger: contract.NewContract(env.L2, L2CrossDomainMessengerAddress, abi.OVML2MessengerABI),
		batches:     make(map[uint64]*stateBatch),
	}, nil
}

// MessageHash is keccak256 of the relayMessage calldata of the L2 messenger, as stored in successfulMessages.
func MessageHash(msg *entity.BridgeMessage) (common.Hash, []byte, error) {
	data, err := abi.OVML2MessengerABI.Pack("relayMessage", msg.Target, msg.Sender, msg.Data, msg.Nonce)
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("can't encode cross domain message: %w", err)
	}
	return crypto.Keccak256Hash(data), data, nil
}

func (m *Messenger) MessagesByTransaction(ctx context.Context, txHash common.Hash) ([]*entity.BridgeMessage, error) {
	receipt, err := m.l2.TransactionReceiptByHash(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("can't get L2 receipt: %w", err)
	}

	sentMessage := abi.OVML2MessengerABI.EventID("SentMessage")
	var msgs []*entity.BridgeMessage
	for _, log := range receipt.Logs {
		if log.Address != L2CrossDomainMessengerAddress || len(log.Topics) == 0 || log.Topics[0] != sentMessage {
			continue
		}
		msg, err := m.decodeSentMessage(log)
		if err != nil {
			return nil, err
		}
		msg.TxHash = txHash
		msg.Index = uint(len(msgs))
		msg.BlockNumber = receipt.BlockNumber.Uint64()
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (m *Messenger) decodeSentMessage(log *types.Log) (*entity.BridgeMessage, error) {
	event, values, err := m.l2Messenger.ParseLog(log)
	if err != nil {
		return nil, fmt.Errorf("can't parse SentMessage log: %w", err)
	}
	if event != abi.SentMessage {
		return nil, fmt.Errorf("%w: unexpected event %q", ErrMalformedEvent, event)
	}
	target, ok1 := values["target"].(common.Address)
	sender, ok2 := values["sender"].(common.Address)
	data, ok3 := values["message"].([]byte)
	nonce, ok4 := values["messageNonce"].(*big.Int)
	gasLimit, ok5 := values["gasLimit"].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, fmt.Errorf("%w: SentMessage in tx %s", ErrMalformedEvent, log.TxHash)
	}
	msg := &entity.BridgeMessage{
		SourceChainID: m.env.ChainID,
		TargetChainID: entity.ChainID(m.l1.ChainID()),
		Sender:        sender,
		Target:        target,
		Data:          data,
		Value:         new(big.Int),
		Nonce:         nonce,
		GasLimit:      gasLimit,
	}
	msg.Hash, _, err = MessageHash(msg)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (m *Messenger) MessageStatus(ctx context.Context, msg *entity.BridgeMessage) (entity.MessageState, error) {
	relayed, err := m.l1Messenger.SuccessfulMessages(ctx, msg.Hash)
	if err != nil {
		return entity.StateUnknown, err
	}
	if relayed {
		return entity.StateAlreadyRelayed, nil
	}
	blocked, err := m.l1Messenger.BlockedMessages(ctx, msg.Hash)
	if err != nil {
		return entity.StateUnknown, err
	}
	if blocked {
		return entity.StateRelayFailed, nil
	}

	batch, err := m.stateBatchForMessage(ctx, msg)
	if err != nil {
		return entity.StateUnknown, err
	}
	if batch == nil {
		return entity.StateNotReady, nil
	}
	inside, err := m.scc.InsideFraudProofWindow(ctx, &batch.header)
	if err != nil {
		return entity.StateUnknown, err
	}
	if inside {
		return entity.StateNotReady, nil
	}
	return entity.StateReadyForRelay, nil
}

func (m *Messenger) Submit(ctx context.Context, msg *entity.BridgeMessage, s signer.Signer) (*relayer.SubmitResult, error) {
	proof, err := m.messageProof(ctx, msg)
	if err != nil {
		return nil, err
	}
	data, err := m.l1Messenger.PackRelayMessage(msg.Target, msg.Sender, msg.Data, msg.Nonce, proof)
	if err != nil {
		return nil, err
	}

	tx, err := s.Transact(ctx, m.l1, m.l1Messenger.Address(), data)
	if err != nil {
		if revert, ok := m.l1Messenger.UnpackRevert(err); ok {
			m.logger.WithField("revert_reason", revert.Reason).Debug("relayMessage reverted")
		}
		// The messenger reverts a second relay of the same message, so a failed attempt is
		// resolved by looking at the relay status on chain.
		relayed, checkErr := m.l1Messenger.SuccessfulMessages(ctx, msg.Hash)
		if checkErr == nil && relayed {
			return &relayer.SubmitResult{Outcome: relayer.OutcomeAlreadyRelayed}, nil
		}
		return nil, fmt.Errorf("can't submit relayMessage: %w", err)
	}
	return &relayer.SubmitResult{Outcome: relayer.OutcomeSubmitted, TxHash: tx.Hash()}, nil
}

func (m *Messenger) FindRelay(ctx context.Context, msg *entity.BridgeMessage) (common.Hash, error) {
	head, err := m.l1.BlockNumber(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("can't get L1 head: %w", err)
	}
	from, to, maxSize := m.env.RelayRange(head)
	log, err := ethclient.FindLatestLog(ctx, m.l1, ethereum.FilterQuery{
		Addresses: []common.Address{m.l1Messenger.Address()},
		Topics:    [][]common.Hash{{m.l1Messenger.EventID("RelayedMessage")}, {msg.Hash}},
	}, from, to, maxSize)
	if err != nil {
		return common.Hash{}, err
	}
	if log == nil {
		return common.Hash{}, fmt.Errorf("RelayedMessage(%s): %w", msg.Hash, relayer.ErrRelayTxNotFound)
	}
	return log.TxHash, nil
}

func (m *Messenger) CheckRelayReceipt(msg *entity.BridgeMessage, receipt *types.Receipt) error {
	failed := m.l1Messenger.EventID("FailedRelayedMessage")
	for _, log := range receipt.Logs {
		if log.Address != m.l1Messenger.Address() || len(log.Topics) < 2 {
			continue
		}
		if log.Topics[0] == failed && log.Topics[1] == msg.Hash {
			return fmt.Errorf("message %s: %w", msg.Hash, relayer.ErrRelayExecutionFailed)
		}
	}
	return nil
}
