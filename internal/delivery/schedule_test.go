package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedule_Delay(t *testing.T) {
	s := newSchedule(time.Second, 0, nil)
	require.Equal(t, time.Duration(0), s.delay(1))
	require.Equal(t, time.Second, s.delay(2))
	require.Equal(t, 2*time.Second, s.delay(3))
	require.Equal(t, 4*time.Second, s.delay(4))
	require.Equal(t, 8*time.Second, s.delay(5))
}

func TestSchedule_NextBackOffStartsAtSecondAttempt(t *testing.T) {
	s := newSchedule(10*time.Millisecond, 0, nil)
	require.Equal(t, 10*time.Millisecond, s.NextBackOff())
	require.Equal(t, 20*time.Millisecond, s.NextBackOff())
	s.Reset()
	require.Equal(t, 10*time.Millisecond, s.NextBackOff())
}

func TestSchedule_Jitter(t *testing.T) {
	var asked time.Duration
	s := newSchedule(time.Second, 250*time.Millisecond, func(max time.Duration) time.Duration {
		asked = max
		return 7 * time.Millisecond
	})
	require.Equal(t, time.Second+7*time.Millisecond, s.delay(2))
	require.Equal(t, 250*time.Millisecond, asked)
}

func TestUniformJitter(t *testing.T) {
	for i := 0; i < 1000; i++ {
		j := uniformJitter(5 * time.Millisecond)
		require.GreaterOrEqual(t, j, time.Duration(0))
		require.LessOrEqual(t, j, 5*time.Millisecond)
		require.Zero(t, j%time.Millisecond)
	}
}

func TestSchedule_NoOverflow(t *testing.T) {
	s := newSchedule(time.Millisecond, 0, nil)
	require.Positive(t, s.delay(200))
}
