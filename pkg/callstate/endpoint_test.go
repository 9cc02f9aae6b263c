package callstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointCallerFlow(t *testing.T) {
	e := NewEndpoint()
	require.NoError(t, e.Dial("bob"))
	assert.Equal(t, PhaseCalling, e.Phase())
	assert.ErrorIs(t, e.Dial("carol"), ErrBusy)

	assert.False(t, e.OnAnswer("carol"), "answer from someone else")
	assert.True(t, e.OnAnswer("bob"))
	assert.False(t, e.OnAnswer("bob"), "duplicate answer")
	assert.True(t, e.MediaUp())
	assert.Equal(t, PhaseConnected, e.Phase())

	assert.True(t, e.Reset("bob"))
	assert.Equal(t, PhaseIdle, e.Phase())
	assert.Empty(t, e.Peer())
}

func TestEndpointCalleeFlow(t *testing.T) {
	e := NewEndpoint()
	assert.False(t, e.MediaUp())
	assert.False(t, e.Accept())

	require.True(t, e.OnOffer("alice"))
	assert.Equal(t, PhaseRinging, e.Phase())
	assert.Equal(t, "alice", e.Peer())
	assert.False(t, e.OnOffer("carol"), "busy while ringing")

	assert.True(t, e.Accept())
	assert.True(t, e.MediaUp())
	assert.False(t, e.OnOffer("carol"), "busy while connected")
}

func TestEndpointIgnoresStaleReset(t *testing.T) {
	e := NewEndpoint()
	assert.False(t, e.Reset(""), "already idle")

	require.True(t, e.OnOffer("alice"))
	assert.False(t, e.Reset("carol"))
	assert.Equal(t, PhaseRinging, e.Phase())
	assert.True(t, e.Reset(""))
}
