package pipeline

// State is the phase a Pipeline is in.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateProcessing
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateProcessing:
		return "processing"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}
