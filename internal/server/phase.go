package server

// Phase tracks lifecycle progress. Transitions are strictly forward.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseConfigured
	PhaseSetUp
	PhaseStarted
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseConfigured:
		return "configured"
	case PhaseSetUp:
		return "setup"
	case PhaseStarted:
		return "started"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
