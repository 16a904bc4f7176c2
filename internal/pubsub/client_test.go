package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDisabledClient(t *testing.T) {
	c := New("")
	defer c.Close()

	event := RegistrationEvent{RegistrationID: "reg-1", Events: []string{"U15_SINGLES"}, TotalAmount: 500}
	require.NoError(t, c.SendMessage(EventRegistrationConfirmed, event))
}

func TestProcessMessage(t *testing.T) {
	c := New("")
	in := RegistrationEvent{
		RegistrationID: "reg-1",
		TournamentID:   "tournament_2024_summer",
		PlayerName:     "Arjun Rao",
		Events:         []string{"U15_SINGLES", "U17_SINGLES"},
		TotalAmount:    1200,
	}
	data, err := msgpack.Marshal(in)
	require.NoError(t, err)

	var out RegistrationEvent
	require.NoError(t, c.ProcessMessage(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, c.ProcessMessage([]byte{0xc1}, &out))
}
