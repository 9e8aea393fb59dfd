package reveal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestElementRevealedExactlyOnce(t *testing.T) {
	var calls []string
	o := NewObserver(0.15, WithOnReveal(func(id string) { calls = append(calls, id) }))
	o.Observe("card-a", "card-b")

	require.Empty(t, o.Handle([]Entry{{ID: "card-a", Ratio: 0.1, Intersecting: true}}))
	require.False(t, o.Visible("card-a"))

	require.Equal(t, []string{"card-a"}, o.Handle([]Entry{{ID: "card-a", Ratio: 0.2, Intersecting: true}}))
	require.True(t, o.Visible("card-a"))
	require.False(t, o.Observing("card-a"))

	// scrolling away and back does nothing further
	require.Empty(t, o.Handle([]Entry{
		{ID: "card-a", Ratio: 0, Intersecting: false},
		{ID: "card-a", Ratio: 1, Intersecting: true},
	}))
	o.Observe("card-a")
	require.False(t, o.Observing("card-a"))

	require.Equal(t, []string{"card-a"}, calls)
	require.Equal(t, []string{"card-b"}, o.Pending())
}

func TestNonIntersectingEntryIgnored(t *testing.T) {
	o := NewObserver(0.15)
	o.Observe("x")
	require.Empty(t, o.Handle([]Entry{{ID: "x", Ratio: 0.9, Intersecting: false}}))
	require.Empty(t, o.Handle([]Entry{{ID: "unknown", Ratio: 1, Intersecting: true}}))
	require.True(t, o.Observing("x"))
}

func TestThresholdFallback(t *testing.T) {
	require.Equal(t, DefaultThreshold, NewObserver(0).Threshold())
	require.Equal(t, DefaultThreshold, NewObserver(1.5).Threshold())
	require.Equal(t, 0.5, NewObserver(0.5).Threshold())
}

func TestDelay(t *testing.T) {
	require.Zero(t, Delay(0, DefaultDelayBase))
	require.Equal(t, 300*time.Millisecond, Delay(2, DefaultDelayBase))
	require.Zero(t, Delay(-1, DefaultDelayBase))
}
