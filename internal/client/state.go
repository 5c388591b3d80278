package client

// State is the client-visible phase of one logical submission.
//
// Idle is the only state a new submission may start from; Success and Error
// are terminal and leave only via an explicit Reset. The state value doubles
// as the busy guard: while Pending or Polling, further Submit calls are
// rejected without generating an identity or sending a request.
type State int32

const (
	StateIdle State = iota
	StatePending
	StatePolling
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StatePolling:
		return "polling"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further automatic transition.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateError
}
