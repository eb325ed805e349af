package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_ParsesBrokers(t *testing.T) {
	c := NewClient(" kafka-1:9092, ,kafka-2:9092 ")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Brokers)
	assert.True(t, c.Enabled())
}

func TestNewPublisher_Disabled(t *testing.T) {
	_, err := NewPublisher(NewClient(""))
	require.ErrorIs(t, err, ErrDisabled)
}
