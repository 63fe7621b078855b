package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(min int, ratio float64, openFor time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBreaker(min, ratio, openFor)
	b.now = clock.now
	return b, clock
}

func TestBreakerTransitions(t *testing.T) {
	b, clock := newTestBreaker(2, 0.5, time.Minute)
	var seen []string
	b.OnStateChange(func(from, to State) { seen = append(seen, from.String()+">"+to.String()) })

	require.True(t, b.Allow())
	b.Report(false)
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow())

	clock.t = clock.t.Add(time.Minute)
	require.True(t, b.Allow(), "probe after cool-off")
	require.False(t, b.Allow(), "only one probe while half-open")
	b.Report(true)
	require.Equal(t, Closed, b.State())

	require.Equal(t, []string{"closed>open", "open>half_open", "half_open>closed"}, seen)
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b, clock := newTestBreaker(1, 1, time.Second)
	b.Report(false)
	require.Equal(t, Open, b.State())

	clock.t = clock.t.Add(time.Second)
	require.True(t, b.Allow())
	b.Report(false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow())
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	b, _ := newTestBreaker(4, 0.6, time.Second)
	for i := 0; i < 20; i++ {
		b.Report(i%3 != 0)
	}
	require.Equal(t, Closed, b.State())
}

func TestDo(t *testing.T) {
	b, _ := newTestBreaker(1, 1, time.Hour)
	boom := errors.New("boom")

	require.ErrorIs(t, b.Do(func() error { return boom }), boom)
	called := false
	err := b.Do(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.False(t, called)
}
