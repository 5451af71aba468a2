package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func key(symbol string) Key {
	return Key{Symbol: symbol, Bucket: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)}
}

func TestBucketOf(t *testing.T) {
	width := 5 * time.Minute
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2024, 1, 2, 9, 32, 17, 0, time.UTC), time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)},
		{time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)},
		{time.Date(2024, 1, 2, 9, 34, 59, 0, time.UTC), time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)},
		{time.Date(2024, 1, 2, 9, 35, 0, 0, time.UTC), time.Date(2024, 1, 2, 9, 35, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := BucketOf(tt.in, width); !got.Equal(tt.want) {
			t.Errorf("BucketOf(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetOrFetchCachesValue(t *testing.T) {
	c := New[string](10)
	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.GetOrFetch(context.Background(), key("AAPL"), fetch)
		if err != nil {
			t.Fatal(err)
		}
		if got != "value" {
			t.Fatalf("got %q, want %q", got, "value")
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}

func TestGetOrFetchSingleFlight(t *testing.T) {
	c := New[int](10)
	var calls atomic.Int64
	gate := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-gate
		return 42, nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), key("AAPL"), fetch)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}
	// Let the workers pile up on the one in-flight fetch, then release it.
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch called %d times for one key, want 1", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("worker %d got %d, want 42", i, v)
		}
	}
}

func TestGetOrFetchErrorLeavesKeyAbsent(t *testing.T) {
	c := New[string](10)
	boom := errors.New("upstream down")
	calls := 0

	_, err := c.GetOrFetch(context.Background(), key("AAPL"), func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("Len after failed fetch = %d, want 0", got)
	}

	// The next caller must retry, not observe the stale error.
	got, err := c.GetOrFetch(context.Background(), key("AAPL"), func(context.Context) (string, error) {
		calls++
		return "recovered", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Errorf("got %q, want %q", got, "recovered")
	}
	if calls != 2 {
		t.Errorf("fetch called %d times, want 2", calls)
	}
}

func TestBucketRolloverFetchesAgain(t *testing.T) {
	c := New[string](10)
	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return fmt.Sprintf("v%d", calls), nil
	}

	k1 := Key{Symbol: "AAPL", Bucket: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)}
	k2 := Key{Symbol: "AAPL", Bucket: time.Date(2024, 1, 2, 9, 35, 0, 0, time.UTC)}

	v1, _ := c.GetOrFetch(context.Background(), k1, fetch)
	v2, _ := c.GetOrFetch(context.Background(), k2, fetch)
	if v1 != "v1" || v2 != "v2" {
		t.Errorf("got %q/%q, want v1/v2", v1, v2)
	}
	if calls != 2 {
		t.Errorf("fetch called %d times across buckets, want 2", calls)
	}
}

func TestLRUEviction(t *testing.T) {
	c := New[int](2)
	fetchN := func(n int) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return n, nil }
	}

	c.GetOrFetch(context.Background(), key("A"), fetchN(1))
	c.GetOrFetch(context.Background(), key("B"), fetchN(2))
	// Touch A so B becomes the eviction candidate.
	c.GetOrFetch(context.Background(), key("A"), fetchN(99))
	c.GetOrFetch(context.Background(), key("C"), fetchN(3))

	if got := c.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	// A survived; B was evicted and refetches.
	calls := 0
	v, _ := c.GetOrFetch(context.Background(), key("A"), func(context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if v != 1 || calls != 0 {
		t.Errorf("A: got %d (refetched=%v), want cached 1", v, calls > 0)
	}
	_, _ = c.GetOrFetch(context.Background(), key("B"), func(context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if calls != 1 {
		t.Errorf("B was not refetched after eviction")
	}
}

func TestClear(t *testing.T) {
	c := New[int](10)
	c.GetOrFetch(context.Background(), key("A"), func(context.Context) (int, error) { return 1, nil })
	c.GetOrFetch(context.Background(), key("B"), func(context.Context) (int, error) { return 2, nil })

	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("Len after Clear = %d, want 0", got)
	}

	calls := 0
	c.GetOrFetch(context.Background(), key("A"), func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	if calls != 1 {
		t.Errorf("A was not refetched after Clear")
	}
}

func TestGetOrFetchContextCanceledWhileWaiting(t *testing.T) {
	c := New[int](10)
	gate := make(chan struct{})
	go c.GetOrFetch(context.Background(), key("A"), func(context.Context) (int, error) {
		<-gate
		return 1, nil
	})
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetOrFetch(ctx, key("A"), func(context.Context) (int, error) { return 0, nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	close(gate)
}
