// SPDX-License-Identifier: MIT
package lazy_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/kappa/lazy"
)

func TestGet_ComputesOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	c := lazy.New()
	var calls int32
	compute := func() ([]float64, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)

		return []float64{1, 2, 3}, nil
	}

	const workers = 32
	results := make([][]float64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = lazy.Get(c, "frequency", compute)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 1; i < workers; i++ {
		require.Same(t, &results[0][0], &results[i][0], "all callers share one published value")
	}
	require.True(t, c.Has("frequency"))
	require.Equal(t, []string{"frequency"}, c.Keys())
}

func TestGet_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	c := lazy.New()
	boom := errors.New("boom")
	calls := 0
	compute := func() (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}

		return 7, nil
	}

	_, err := lazy.Get(c, "bandwidth", compute)
	require.ErrorIs(t, err, boom)
	require.False(t, c.Has("bandwidth"))

	v, err := lazy.Get(c, "bandwidth", compute)
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, 2, calls)
}

func TestGet_TypeMismatch(t *testing.T) {
	t.Parallel()

	c := lazy.New()
	_, err := lazy.Get(c, "k", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	_, err = lazy.Get(c, "k", func() (string, error) { return "x", nil })
	require.Error(t, err)
}
