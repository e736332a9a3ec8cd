package marketchat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingExpiresAfterWindow(t *testing.T) {
	clock := newFakeClock()
	tc := NewTypingCoordinator(clock, 3*time.Second)

	tc.StartTyping("c", "u")
	assert.True(t, tc.IsTyping("c", "u"))

	clock.Advance(2999 * time.Millisecond)
	assert.True(t, tc.IsTyping("c", "u"))

	clock.Advance(time.Millisecond)
	assert.False(t, tc.IsTyping("c", "u"))
	assert.Empty(t, tc.Typists("c"))
}

func TestTypingRestartExtendsWindow(t *testing.T) {
	clock := newFakeClock()
	tc := NewTypingCoordinator(clock, 3*time.Second)

	tc.StartTyping("c", "u")
	clock.Advance(2 * time.Second)
	tc.StartTyping("c", "u")
	clock.Advance(2 * time.Second)
	assert.True(t, tc.IsTyping("c", "u"), "second keystroke restarted the window")

	clock.Advance(time.Second)
	assert.False(t, tc.IsTyping("c", "u"))
	assert.Equal(t, 0, clock.Pending())
}

func TestTypingStopCancelsTimer(t *testing.T) {
	clock := newFakeClock()
	tc := NewTypingCoordinator(clock, 3*time.Second)

	var changes []TypingState
	tc.OnChange(func(s TypingState) { changes = append(changes, s) })

	tc.StartTyping("c", "u")
	tc.StopTyping("c", "u")
	assert.False(t, tc.IsTyping("c", "u"))
	assert.Equal(t, 0, clock.Pending())

	// stopping an idle pair is a no-op
	tc.StopTyping("c", "u")

	clock.Advance(time.Minute)
	require.Len(t, changes, 2)
	assert.Equal(t, []string{"u"}, changes[0].UserIDs)
	assert.Empty(t, changes[1].UserIDs)
}

func TestTypingMultipleUsers(t *testing.T) {
	clock := newFakeClock()
	tc := NewTypingCoordinator(clock, 3*time.Second)

	var changes int
	tc.OnChange(func(TypingState) { changes++ })

	tc.StartTyping("c", "bob")
	clock.Advance(time.Second)
	tc.StartTyping("c", "alice")
	tc.StartTyping("c", "alice")
	tc.StartTyping("other", "bob")

	assert.Equal(t, []string{"alice", "bob"}, tc.Typists("c"))
	assert.Equal(t, []string{"bob"}, tc.Typists("other"))
	assert.Equal(t, 3, changes, "restarting an active typist does not signal a change")

	clock.Advance(2 * time.Second)
	assert.Equal(t, []string{"alice"}, tc.Typists("c"))
	assert.Equal(t, []string{"bob"}, tc.Typists("other"))
}

func TestTypingReset(t *testing.T) {
	clock := newFakeClock()
	tc := NewTypingCoordinator(clock, 3*time.Second)
	tc.StartTyping("c", "a")
	tc.StartTyping("d", "b")

	tc.Reset()
	assert.Empty(t, tc.Typists("c"))
	assert.Equal(t, 0, clock.Pending())
}
