package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Grid(t *testing.T) {
	all := []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}

	allowed := map[OrderStatus]map[OrderStatus]bool{
		StatusPending:    {StatusProcessing: true, StatusCancelled: true},
		StatusProcessing: {StatusShipped: true, StatusCancelled: true},
		StatusShipped:    {StatusDelivered: true},
		StatusDelivered:  {StatusRefunded: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanCancel(t *testing.T) {
	for s, want := range map[OrderStatus]bool{
		StatusPending:    true,
		StatusProcessing: true,
		StatusShipped:    false,
		StatusDelivered:  false,
		StatusCancelled:  false,
		StatusRefunded:   false,
	} {
		o := &Order{Status: s}
		assert.Equal(t, want, o.CanCancel(), s)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.False(t, StatusDelivered.IsTerminal())
	assert.False(t, OrderStatus("BOGUS").IsValid())
}
