package hooks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInvokesHookWithEvent(t *testing.T) {
	var got Event
	h := &Hooks{OnInsert: func(ev Event) error {
		got = ev
		return nil
	}}
	h.Run(h.OnInsert, Event{Op: "insert", Collection: "c", List: "l", DataID: "d"})
	require.Equal(t, "insert", got.Op)
	require.Equal(t, "d", got.DataID)
}

func TestRunForwardsErrorToOnError(t *testing.T) {
	var got error
	h := &Hooks{
		OnInsert: func(Event) error { return errors.New("boom") },
		OnError:  func(err error) { got = err },
	}
	h.Run(h.OnInsert, Event{})
	require.EqualError(t, got, "boom")
}

func TestRunRecoversPanicAndForwardsToOnError(t *testing.T) {
	var got error
	h := &Hooks{
		OnInsert: func(Event) error { panic("kaboom") },
		OnError:  func(err error) { got = err },
	}
	require.NotPanics(t, func() { h.Run(h.OnInsert, Event{}) })
	require.ErrorContains(t, got, "kaboom")
}

func TestRunNilHookIsNoOp(t *testing.T) {
	h := &Hooks{}
	require.NotPanics(t, func() { h.Run(h.OnInsert, Event{}) })
}

func TestSafeErrorSurvivesPanickingOnError(t *testing.T) {
	h := &Hooks{OnError: func(error) { panic("also kaboom") }}
	require.NotPanics(t, func() { h.RunError(errors.New("x")) })
}
