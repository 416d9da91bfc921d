package domain

type SessionStatus string

const (
	SessionStatusInitiated       SessionStatus = "INITIATED"
	SessionStatusCompleted       SessionStatus = "COMPLETED"
	SessionStatusChargeSucceeded SessionStatus = "CHARGE_SUCCEEDED"
	SessionStatusChargeFailed    SessionStatus = "CHARGE_FAILED"
	SessionStatusRefunded        SessionStatus = "REFUNDED"
)

var allowedTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusInitiated:       {SessionStatusCompleted, SessionStatusChargeFailed},
	SessionStatusCompleted:       {SessionStatusChargeSucceeded, SessionStatusChargeFailed, SessionStatusRefunded},
	SessionStatusChargeSucceeded: {SessionStatusRefunded},
}

// CanTransitionTo reports whether a session observed in the current status may
// move to the next one. A refund before a completion is not a valid order of
// events and must be rejected, not absorbed.
func CanTransitionTo(current, next SessionStatus) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusRefunded || s == SessionStatusChargeFailed
}

// String representation (for logging)
func (s SessionStatus) String() string {
	return string(s)
}
