package abi

//nolint:golint
import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed ovm_l1_messenger.json
var ovmL1MessengerJSONABI string

//go:embed ovm_l2_messenger.json
var ovmL2MessengerJSONABI string

//go:embed state_commitment_chain.json
var stateCommitmentChainJSONABI string

//go:embed arb_sys.json
var arbSysJSONABI string

//go:embed arb_outbox.json
var arbOutboxJSONABI string

//go:embed node_interface.json
var nodeInterfaceJSONABI string

var (
	OVML1MessengerABI       = MustReadABI(ovmL1MessengerJSONABI)
	OVML2MessengerABI       = MustReadABI(ovmL2MessengerJSONABI)
	StateCommitmentChainABI = MustReadABI(stateCommitmentChainJSONABI)
	ArbSysABI               = MustReadABI(arbSysJSONABI)
	ArbOutboxABI            = MustReadABI(arbOutboxJSONABI)
	NodeInterfaceABI        = MustReadABI(nodeInterfaceJSONABI)
)

const (
	SentMessage               = "event SentMessage(address indexed target, address sender, bytes message, uint256 messageNonce, uint256 gasLimit)"
	RelayedMessage            = "event RelayedMessage(bytes32 indexed msgHash)"
	FailedRelayedMessage      = "event FailedRelayedMessage(bytes32 indexed msgHash)"
	StateBatchAppended        = "event StateBatchAppended(uint256 indexed _batchIndex, bytes32 _batchRoot, uint256 _batchSize, uint256 _prevTotalElements, bytes _extraData)"
	L2ToL1Tx                  = "event L2ToL1Tx(address caller, address indexed destination, uint256 indexed hash, uint256 indexed position, uint256 arbBlockNum, uint256 ethBlockNum, uint256 timestamp, uint256 callvalue, bytes data)"
	SendRootUpdated           = "event SendRootUpdated(bytes32 indexed outputRoot, bytes32 indexed l2BlockHash)"
	OutBoxTransactionExecuted = "event OutBoxTransactionExecuted(address indexed to, address indexed l2Sender, uint256 indexed zero, uint256 transactionIndex)"
)

var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

type ABI struct {
	abi.ABI
}

type Revert struct {
	Name   string
	Reason string
	Args   []interface{}
}

func MustReadABI(js string) ABI {
	res, err := abi.JSON(strings.NewReader(js))
	if err != nil {
		panic(err)
	}
	return ABI{res}
}

func (a *ABI) AllEvents() map[string]bool {
	events := make(map[string]bool, len(a.Events))
	for _, event := range a.Events {
		events[event.String()] = true
	}
	return events
}

func (a *ABI) EventID(name string) common.Hash {
	event, ok := a.Events[name]
	if !ok {
		panic(fmt.Sprintf("event %s is not defined in abi", name))
	}
	return event.ID
}

func indexed(args abi.Arguments) abi.Arguments {
	var res abi.Arguments
	for _, arg := range args {
		if arg.Indexed {
			res = append(res, arg)
		}
	}
	return res
}

func (a *ABI) FindMatchingEventABI(topics []common.Hash) *abi.Event {
	for _, e := range a.Events {
		if e.ID == topics[0] {
			if len(indexed(e.Inputs)) == len(topics)-1 {
				return &e
			}
		}
	}
	return nil
}

func decodeEventLog(event *abi.Event, topics []common.Hash, data []byte) (map[string]interface{}, error) {
	indexedArgs := indexed(event.Inputs)
	values := make(map[string]interface{})
	if len(indexedArgs) < len(event.Inputs) {
		if err := event.Inputs.UnpackIntoMap(values, data); err != nil {
			return nil, fmt.Errorf("can't unpack data: %w", err)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexedArgs, topics[1:]); err != nil {
		return nil, fmt.Errorf("can't unpack topics: %w", err)
	}
	return values, nil
}

// ParseLog returns an empty event name when the log does not match any event in the abi.
func (a *ABI) ParseLog(log *types.Log) (string, map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return "", nil, fmt.Errorf("cannot process event without topics")
	}
	event := a.FindMatchingEventABI(log.Topics)
	if event == nil {
		return "", nil, nil
	}

	res, err := decodeEventLog(event, log.Topics, log.Data)
	if err != nil {
		return "", nil, fmt.Errorf("can't decode event log: %w", err)
	}
	return event.String(), res, nil
}

// UnpackRevert decodes revert data as either Error(string) or one of the custom errors of the abi.
func (a *ABI) UnpackRevert(data []byte) (*Revert, bool) {
	if len(data) < 4 {
		return nil, false
	}
	if bytes.Equal(data[:4], revertSelector) {
		reason, err := abi.UnpackRevert(data)
		if err != nil {
			return nil, false
		}
		return &Revert{Name: "Error", Reason: reason}, true
	}
	for name, e := range a.Errors {
		if !bytes.Equal(data[:4], e.ID[:4]) {
			continue
		}
		args, err := e.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, false
		}
		return &Revert{Name: name, Args: args}, true
	}
	return nil, false
}
