package gemini

// ConnectionState tracks the lifecycle of the upstream connection. It is
// written only during Initialize and read-only afterwards.
type ConnectionState int

const (
	// StateUninitialized is the state before Initialize is called.
	StateUninitialized ConnectionState = iota
	// StateConnecting is the state while validation attempts are running.
	StateConnecting
	// StateReady means the validation call succeeded; generation is allowed.
	StateReady
	// StateFailed is terminal: the retry budget was spent without success.
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Variant selects one of the two configured model handles.
type Variant int

const (
	// Pro is the heavyweight model used for reasoning-heavy tools.
	Pro Variant = iota
	// Flash is the lightweight model used for summaries and the
	// startup validation call.
	Flash
)

func (v Variant) String() string {
	if v == Flash {
		return "flash"
	}
	return "pro"
}
