package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Property-based tests using rapid

// TestCircularBuffer_PropertyBased_SlidingWindow verifies that a DropOldest
// buffer always retains exactly the most recent items in arrival order, no
// matter how far past capacity the writer runs.
func TestCircularBuffer_PropertyBased_SlidingWindow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(rt, "capacity")
		numWrites := rapid.IntRange(0, 300).Draw(rt, "numWrites")

		buf, err := NewCircularBuffer[int](capacity, WithOverflowPolicy[int](DropOldest))
		require.NoError(rt, err)
		defer buf.Close()

		for i := 0; i < numWrites; i++ {
			require.NoError(rt, buf.Write(i))
		}

		expectedSize := numWrites
		if expectedSize > capacity {
			expectedSize = capacity
		}
		assert.Equal(rt, expectedSize, buf.Size(), "size never exceeds capacity")

		snap := buf.Snapshot()
		assert.Len(rt, snap, expectedSize)
		for i, v := range snap {
			want := numWrites - expectedSize + i
			assert.Equal(rt, want, v, "retained window must be the most recent writes in order")
		}
	})
}

// TestCircularBuffer_PropertyBased_DropNewest verifies that a DropNewest
// buffer keeps the first capacity items and rejects the rest.
func TestCircularBuffer_PropertyBased_DropNewest(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 64).Draw(rt, "capacity")
		numWrites := rapid.IntRange(0, 300).Draw(rt, "numWrites")

		buf, err := NewCircularBuffer[int](capacity, WithOverflowPolicy[int](DropNewest))
		require.NoError(rt, err)
		defer buf.Close()

		for i := 0; i < numWrites; i++ {
			require.NoError(rt, buf.Write(i))
		}

		expectedSize := numWrites
		if expectedSize > capacity {
			expectedSize = capacity
		}

		snap := buf.Snapshot()
		assert.Len(rt, snap, expectedSize)
		for i, v := range snap {
			assert.Equal(rt, i, v, "retained items must be the earliest writes in order")
		}
	})
}

// TestCircularBuffer_PropertyBased_Accounting interleaves writes and reads and
// checks that the statistics ledger balances: every written item is either
// read, dropped, or still buffered.
func TestCircularBuffer_PropertyBased_Accounting(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 32).Draw(rt, "capacity")
		numOps := rapid.IntRange(0, 200).Draw(rt, "numOps")

		buf, err := NewCircularBuffer[int](capacity)
		require.NoError(rt, err)
		defer buf.Close()

		for i := 0; i < numOps; i++ {
			if rapid.Bool().Draw(rt, "isWrite") {
				require.NoError(rt, buf.Write(i))
			} else {
				buf.Read()
			}
			assert.LessOrEqual(rt, buf.Size(), capacity, "size never exceeds capacity")
		}

		stats := buf.Stats()
		buffered := int64(buf.Size())
		assert.Equal(rt, stats.Writes()-stats.Reads()-stats.Drops(), buffered,
			"every written item must be read, dropped, or still buffered")
		assert.Equal(rt, stats.Drops(), stats.Overflows(), "every overflow drops exactly one item")
	})
}
