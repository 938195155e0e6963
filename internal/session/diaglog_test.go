package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDiagLog_TimestampPrefix(t *testing.T) {
	l := NewDiagLog(5)
	l.now = fixedClock(time.Date(2024, 3, 15, 9, 30, 0, 123_000_000, time.FixedZone("IST", 5*3600+1800)))

	l.Append("navigating")
	assert.Equal(t, []string{"[2024-03-15T04:00:00.123Z] navigating"}, l.Snapshot())
}

func TestDiagLog_EvictsOldestAtCapacity(t *testing.T) {
	l := NewDiagLog(DefaultLogCapacity)
	for i := 0; i < 60; i++ {
		l.Append(fmt.Sprintf("entry %d", i))
	}

	snap := l.Snapshot()
	require.Len(t, snap, DefaultLogCapacity)
	assert.True(t, strings.HasSuffix(snap[0], "] entry 10"), snap[0])
	assert.True(t, strings.HasSuffix(snap[len(snap)-1], "] entry 59"), snap[len(snap)-1])
	for i := 1; i < len(snap); i++ {
		assert.True(t, strings.HasSuffix(snap[i], fmt.Sprintf("] entry %d", i+10)))
	}
}

func TestDiagLog_SnapshotIsACopy(t *testing.T) {
	l := NewDiagLog(3)
	l.Append("a")
	snap := l.Snapshot()
	snap[0] = "mutated"
	l.Append("b")

	again := l.Snapshot()
	require.Len(t, again, 2)
	assert.True(t, strings.HasSuffix(again[0], "] a"))
}

func TestDiagLog_NonPositiveCapacityUsesDefault(t *testing.T) {
	l := NewDiagLog(0)
	for i := 0; i < DefaultLogCapacity+1; i++ {
		l.Append("x")
	}
	assert.Equal(t, DefaultLogCapacity, l.Len())
}

func TestDiagLog_OversizedCapacityIsCapped(t *testing.T) {
	l := NewDiagLog(DefaultLogCapacity * 4)
	for i := 0; i < DefaultLogCapacity*2; i++ {
		l.Append("x")
	}
	assert.Equal(t, DefaultLogCapacity, l.Len())
}

func TestDiagLog_ConcurrentAppend(t *testing.T) {
	l := NewDiagLog(10)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Append("concurrent")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, l.Len())
	assert.Len(t, l.Snapshot(), 10)
}
