package model

// transitions is the only place allowed moves are defined.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusRefunded},
}

// CanTransition reports whether from → to is an allowed move.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the targets reachable from s.
func AllowedTransitions(s OrderStatus) []OrderStatus {
	out := make([]OrderStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// CanCancel chỉ đúng ở PENDING và PROCESSING
func (o *Order) CanCancel() bool {
	return CanTransition(o.Status, StatusCancelled)
}

func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}
