package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeAndDispatch(t *testing.T) {
	m := NewManager()

	var got []Event
	m.Subscribe(TypeBufferSaved, func(e Event) bool {
		got = append(got, e)
		return false
	})

	m.Dispatch(TypeBufferSaved, BufferSavedData{SessionID: "s1", Path: "/tmp/x", Bytes: 42})
	m.Dispatch(TypeBufferLoaded, BufferLoadedData{SessionID: "s1"})

	require.Len(t, got, 1, "handler only sees its subscribed type")
	data, ok := got[0].Data.(BufferSavedData)
	require.True(t, ok)
	assert.Equal(t, 42, data.Bytes)
}

func TestDispatchReachesAllHandlers(t *testing.T) {
	m := NewManager()

	calls := 0
	for i := 0; i < 3; i++ {
		m.Subscribe(TypeSessionClosed, func(e Event) bool {
			calls++
			return false
		})
	}

	m.Dispatch(TypeSessionClosed, SessionData{SessionID: "s1"})
	assert.Equal(t, 3, calls)
}

func TestDispatchWithNoHandlersIsSafe(t *testing.T) {
	m := NewManager()
	assert.NotPanics(t, func() {
		m.Dispatch(TypeUndoPerformed, ActionData{SessionID: "s1"})
	})
}

func TestHandlerMaySubscribeDuringDispatch(t *testing.T) {
	m := NewManager()

	late := 0
	m.Subscribe(TypeEditApplied, func(e Event) bool {
		m.Subscribe(TypeEditApplied, func(e Event) bool {
			late++
			return false
		})
		return false
	})

	m.Dispatch(TypeEditApplied, ActionData{})
	assert.Equal(t, 0, late, "handlers added mid-dispatch see only later events")

	m.Dispatch(TypeEditApplied, ActionData{})
	assert.Equal(t, 1, late)
}
