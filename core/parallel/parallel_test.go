package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mibench/mibench/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestChunksCoversEveryItemOnce(t *testing.T) {
	for _, items := range []int{0, 1, 7, 150} {
		seen := make([]int32, items)
		err := Chunks(items, 0, func(start, end int) error {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
			return nil
		})
		require.NoError(t, err)
		for i, v := range seen {
			assert.EqualValues(t, 1, v, "item %d of %d", i, items)
		}
	}
}

func TestChunksRanges(t *testing.T) {
	var mu sync.Mutex
	var ranges [][2]int
	require.NoError(t, Chunks(10, 3, func(start, end int) error {
		mu.Lock()
		ranges = append(ranges, [2]int{start, end})
		mu.Unlock()
		return nil
	}))
	assert.ElementsMatch(t, [][2]int{{0, 4}, {4, 8}, {8, 10}}, ranges)

	var calls int32
	require.NoError(t, Chunks(2, 8, func(start, end int) error {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 1, end-start)
		return nil
	}))
	assert.EqualValues(t, 2, calls, "no more workers than items")
}

func TestChunksErrors(t *testing.T) {
	boom := errors.New("tree failed")
	var done int32
	err := Chunks(9, 3, func(start, end int) error {
		defer atomic.AddInt32(&done, 1)
		switch start {
		case 3:
			return boom
		case 6:
			panic("singular")
		}
		return nil
	})
	assert.True(t, errors.Is(err, boom), "lowest failing range wins")
	assert.EqualValues(t, 3, done, "every range runs to completion")

	err = Chunks(4, 4, func(start, end int) error {
		if start == 2 {
			panic("singular")
		}
		return nil
	})
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
}

func TestForEachFillsResultTable(t *testing.T) {
	results := make([]int, 30)
	err := ForEach(context.Background(), 4, len(results), func(_ context.Context, i int) error {
		results[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestForEachRespectsLimit(t *testing.T) {
	var running, peak int32
	err := ForEach(context.Background(), 2, 20, func(_ context.Context, i int) error {
		cur := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestForEachFirstErrorCancels(t *testing.T) {
	boom := errors.New("split failed")
	var started int32
	err := ForEach(context.Background(), 1, 100, func(ctx context.Context, i int) error {
		atomic.AddInt32(&started, 1)
		if i == 3 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Less(t, atomic.LoadInt32(&started), int32(100))
}

func TestForEachRecoversPanics(t *testing.T) {
	err := ForEach(context.Background(), 2, 4, func(_ context.Context, i int) error {
		if i == 2 {
			panic("degenerate covariance")
		}
		return nil
	})
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "degenerate covariance", pe.PanicValue)
}

func TestForEachParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran int32
	err := ForEach(ctx, 2, 10, func(context.Context, int) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&ran))
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Positive(t, Workers(0))
	assert.Positive(t, Workers(-1))
}
