package presenter

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omni/rollup-relayer/entity"
	"github.com/omni/rollup-relayer/relayer"
)

type MessageInfo struct {
	MessageID   string         `json:"messageId"`
	Hash        common.Hash    `json:"hash"`
	Sender      common.Address `json:"sender"`
	Target      common.Address `json:"target"`
	Data        hexutil.Bytes  `json:"data"`
	Value       *hexutil.Big   `json:"value,omitempty"`
	Nonce       *hexutil.Big   `json:"nonce,omitempty"`
	BlockNumber uint64         `json:"blockNumber"`
}

type StatusResult struct {
	ChainID entity.ChainID      `json:"chainId"`
	TxHash  common.Hash         `json:"txHash"`
	State   entity.MessageState `json:"state"`
	Message *MessageInfo        `json:"message"`
}

type RelayResult struct {
	ChainID       entity.ChainID `json:"chainId"`
	TxHash        common.Hash    `json:"txHash"`
	RelayTxHash   common.Hash    `json:"relayTxHash"`
	RelayTxLink   string         `json:"relayTxLink"`
	BlockNumber   uint64         `json:"blockNumber"`
	Confirmations uint64         `json:"confirmations"`
	Submitted     bool           `json:"submitted"`
}

type AttemptResult struct {
	State         string       `json:"state"`
	Family        string       `json:"family"`
	MessageHash   *common.Hash `json:"messageHash,omitempty"`
	RelayTxHash   *common.Hash `json:"relayTxHash,omitempty"`
	Confirmations uint64       `json:"confirmations"`
	Submitted     bool         `json:"submitted"`
	Error         *string      `json:"error,omitempty"`
	CreatedAt     *time.Time   `json:"createdAt,omitempty"`
}

func newStatusResult(chainID entity.ChainID, txHash common.Hash, status *relayer.MessageStatus) *StatusResult {
	msg := status.Message
	return &StatusResult{
		ChainID: chainID,
		TxHash:  txHash,
		State:   status.State,
		Message: &MessageInfo{
			MessageID:   msg.ID().String(),
			Hash:        msg.Hash,
			Sender:      msg.Sender,
			Target:      msg.Target,
			Data:        msg.Data,
			Value:       (*hexutil.Big)(msg.Value),
			Nonce:       (*hexutil.Big)(msg.Nonce),
			BlockNumber: msg.BlockNumber,
		},
	}
}

func (p *Presenter) newRelayResult(chainID entity.ChainID, txHash common.Hash, receipt *entity.RelayReceipt) *RelayResult {
	return &RelayResult{
		ChainID:       chainID,
		TxHash:        txHash,
		RelayTxHash:   receipt.TxHash,
		RelayTxLink:   txLink(p.l1ChainID, receipt.TxHash),
		BlockNumber:   receipt.BlockNumber,
		Confirmations: receipt.Confirmations,
		Submitted:     receipt.Submitted,
	}
}

func newAttemptResult(attempt *entity.RelayAttempt) *AttemptResult {
	return &AttemptResult{
		State:         attempt.State,
		Family:        attempt.Family,
		MessageHash:   attempt.MessageHash,
		RelayTxHash:   attempt.RelayTxHash,
		Confirmations: attempt.Confirmations,
		Submitted:     attempt.Submitted,
		Error:         attempt.Error,
		CreatedAt:     attempt.CreatedAt,
	}
}
