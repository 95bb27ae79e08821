package complete

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompleteWalksSortedMatches(t *testing.T) {
	c := New([]string{"plugin-list", "info", "plugin"})

	got, ok := c.Complete("plugin", 0)
	require.True(t, ok)
	require.Equal(t, "plugin", got)

	got, ok = c.Complete("plugin", 1)
	require.True(t, ok)
	require.Equal(t, "plugin-list", got)

	_, ok = c.Complete("plugin", 2)
	require.False(t, ok)
}

func TestCompleteEmptyPrefixMatchesAll(t *testing.T) {
	c := New([]string{"quit", "help", "info"})
	require.Equal(t, []string{"help", "info", "quit"}, c.Matches(""))

	got, ok := c.Complete("", 2)
	require.True(t, ok)
	require.Equal(t, "quit", got)
}

func TestCompleteIsCaseSensitive(t *testing.T) {
	c := New([]string{"Info", "info"})
	require.Equal(t, []string{"info"}, c.Matches("i"))
	require.Equal(t, []string{"Info"}, c.Matches("I"))
}

func TestCompletePrefixChangeRecomputes(t *testing.T) {
	c := New([]string{"threads", "help", "threads-set"})

	got, ok := c.Complete("t", 1)
	require.True(t, ok)
	require.Equal(t, "threads-set", got)

	got, ok = c.Complete("h", 0)
	require.True(t, ok)
	require.Equal(t, "help", got)

	_, ok = c.Complete("h", 1)
	require.False(t, ok)

	_, ok = c.Complete("zzz", 0)
	require.False(t, ok)
}

func TestCompleteNegativeIndexAndEmptyVocabulary(t *testing.T) {
	c := New(nil)
	_, ok := c.Complete("", 0)
	require.False(t, ok)
	_, ok = c.Complete("", -1)
	require.False(t, ok)
}

func TestNewDoesNotAliasInput(t *testing.T) {
	input := []string{"b", "a"}
	c := New(input)
	require.Equal(t, []string{"b", "a"}, input)

	matches := c.Matches("")
	matches[0] = "mutated"
	require.Equal(t, []string{"a", "b"}, c.Matches(""))
}
