package entity

type MessageState int

const (
	StateUnknown MessageState = iota
	StateNotReady
	StateReadyForRelay
	StateAlreadyRelayed
	StateRelayFailed
)

func (s MessageState) String() string {
	switch s {
	case StateNotReady:
		return "NOT_READY"
	case StateReadyForRelay:
		return "READY_FOR_RELAY"
	case StateAlreadyRelayed:
		return "ALREADY_RELAYED"
	case StateRelayFailed:
		return "RELAY_FAILED"
	default:
		return "UNKNOWN"
	}
}

func (s MessageState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *MessageState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NOT_READY":
		*s = StateNotReady
	case "READY_FOR_RELAY":
		*s = StateReadyForRelay
	case "ALREADY_RELAYED":
		*s = StateAlreadyRelayed
	case "RELAY_FAILED":
		*s = StateRelayFailed
	default:
		*s = StateUnknown
	}
	return nil
}
