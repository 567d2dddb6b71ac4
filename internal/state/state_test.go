package state

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrement(t *testing.T) {
	s := New("app")
	assert.Equal(t, "app", s.Name())

	n, err := s.Increment()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Increment()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// TestIncrementConcurrent は並行呼び出しで値の重複や欠番が無いことを確認する
func TestIncrementConcurrent(t *testing.T) {
	const (
		initial = 10
		workers = 64
		perWork = 50
	)
	total := workers * perWork

	s := NewWithCounter("app", initial)

	results := make(chan int, total)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWork; j++ {
				n, err := s.Increment()
				if err != nil {
					t.Error(err)
					return
				}
				results <- n
			}
		}()
	}
	wg.Wait()
	close(results)

	got := make([]int, 0, total)
	for n := range results {
		got = append(got, n)
	}
	sort.Ints(got)

	require.Len(t, got, total)
	for i, n := range got {
		assert.Equal(t, initial+i+1, n)
	}

	final, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, initial+total, final)
}

func TestUpdatePanicPoisonsStore(t *testing.T) {
	s := NewWithCounter("app", 5)

	func() {
		defer func() {
			assert.NotNil(t, recover(), "panicが伝播していません")
		}()
		_, _ = s.Update(func(int) int { panic("boom") })
	}()

	_, err := s.Increment()
	assert.ErrorIs(t, err, ErrPoisoned)

	_, err = s.Load()
	assert.ErrorIs(t, err, ErrPoisoned)

	// ロックは解放されていること
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Load()
	}()
	<-done
}
