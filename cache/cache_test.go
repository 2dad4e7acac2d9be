package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

type fakeClock struct{ t int64 }

func (f *fakeClock) NowUnixNano() int64  { return f.t }
func (f *fakeClock) add(d time.Duration) { f.t += int64(d) }

// Uses a fake clock to avoid timing flakiness.
// Ensures that per-entry TLRU expiry is respected.
func TestCache_TLRU_FakeClock(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := New[string, string](Options[string, string]{
		Capacity:     4,
		ItemLifetime: 100 * time.Millisecond,
		Clock:        clk,
	})
	t.Cleanup(func() { _ = c.Close() })

	c.Put("x", "v")
	if _, ok := c.Get("x"); !ok {
		t.Fatal("fresh miss")
	}
	clk.add(200 * time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expired hit")
	}
}

// Basic Add/Put/Get/Remove semantics.
// Add inserts only if key is absent; with UpdateExisting=false (the
// default) a colliding Put discards its value and promotes the existing
// entry instead of updating it.
func TestCache_BasicAddPutGetRemove(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8})
	t.Cleanup(func() { _ = c.Close() })

	if !c.Add("a", 1) {
		t.Fatal("Add a=1 must be true")
	}
	if c.Add("a", 2) {
		t.Fatal("Add duplicate must be false")
	}

	c.Put("a", 11) // update_existing=false: discarded, "a" stays 1
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get a want 1, got %v ok=%v", v, ok)
	}

	if !c.Remove("a") {
		t.Fatal("Remove a must be true")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be absent after Remove")
	}
}

// UpdateExisting=true makes a colliding Put replace the stored value.
func TestCache_UpdateExisting_Replaces(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8, UpdateExisting: true})
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	c.Put("a", 2)

	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Fatalf("Get a want 2, got %v ok=%v", v, ok)
	}
	if got := c.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

// Deterministic LRU eviction: single shard, small capacity.
// Accessing "a" promotes it; inserting "c" evicts LRU ("b").
func TestCache_EvictionLRU(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{
		Capacity: 2,
		Shards:   1, // force a single shard so LRU is exact
	})
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1) // LRU = a
	c.Put("b", 2) // MRU = b

	if _, ok := c.Get("a"); !ok { // promote a -> MRU
		t.Fatal("expect hit for a")
	}
	c.Put("c", 3) // overflow -> evict LRU (b)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("c must be present")
	}
}

// Scenario 5 from the concurrent-scenarios table: capacity 2, single
// shard, a specific put/get/put sequence with a fully deterministic
// outcome.
func TestCache_EvictionLRU_ExactSequence(t *testing.T) {
	t.Parallel()

	c := New[string, string](Options[string, string]{Capacity: 2, Shards: 1})
	t.Cleanup(func() { _ = c.Close() })

	c.Put("k1", "v1")
	c.Put("k2", "v2")
	c.Get("k1")
	c.Put("k3", "v3")

	if v, ok := c.Get("k1"); !ok || v != "v1" {
		t.Fatalf("k1: got (%v, %v), want (v1, true)", v, ok)
	}
	if _, ok := c.Get("k2"); ok {
		t.Fatal("k2 must have been evicted")
	}
	if v, ok := c.Get("k3"); !ok || v != "v3" {
		t.Fatalf("k3: got (%v, %v), want (v3, true)", v, ok)
	}
}

// Singleflight test: concurrent GetOrLoad calls for the same key
// should trigger the Loader at most once; subsequent calls are cache hits.
func TestCache_GetOrLoad_Singleflight(t *testing.T) {
	var calls int64

	c := New[string, string](Options[string, string]{
		Capacity: 64,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(5 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	const N = 64
	var g errgroup.Group
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < N; i++ {
		g.Go(func() error {
			v, err := c.GetOrLoad(ctx, "k")
			if err != nil {
				return err
			}
			if v != "v:k" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader must run exactly once, got %d", got)
	}

	if v, err := c.GetOrLoad(context.Background(), "k"); err != nil || v != "v:k" {
		t.Fatalf("second GetOrLoad failed: v=%q err=%v", v, err)
	}
}

// GetOrLoad with no Loader configured must degrade to ErrNoLoader rather
// than panicking.
func TestCache_GetOrLoad_NoLoader(t *testing.T) {
	t.Parallel()

	c := New[string, string](Options[string, string]{Capacity: 8})
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.GetOrLoad(context.Background(), "missing"); err != ErrNoLoader {
		t.Fatalf("got err=%v, want ErrNoLoader", err)
	}
}

// Warm eagerly loads a key set via the Loader.
func TestCache_Warm(t *testing.T) {
	t.Parallel()

	c := New[string, string](Options[string, string]{
		Capacity: 8,
		Loader: func(_ context.Context, k string) (string, error) {
			return "v:" + k, nil
		},
	})
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Warm(context.Background(), []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Warm failed: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if v, ok := c.Get(k); !ok || v != "v:"+k {
			t.Fatalf("Get(%q) = (%v, %v), want (%q, true)", k, v, ok, "v:"+k)
		}
	}
}

// Reset clears all entries and counters.
func TestCache_Reset(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8})
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	c.Get("a")
	c.Get("missing")
	c.Reset()

	if got := c.Len(); got != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", got)
	}
	if got := c.Requests(); got != 0 {
		t.Fatalf("Requests() after Reset = %d, want 0", got)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be absent after Reset")
	}
}

func TestCache_MissRatio(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8})
	t.Cleanup(func() { _ = c.Close() })

	if got := c.MissRatio(); got != 0 {
		t.Fatalf("MissRatio() with no requests = %v, want 0", got)
	}

	c.Put("a", 1)
	c.Get("a")       // hit
	c.Get("missing") // miss

	if got := c.MissRatio(); got != 0.5 {
		t.Fatalf("MissRatio() = %v, want 0.5", got)
	}
}

// New must reject a non-positive Capacity rather than silently accepting
// an unbounded cache.
func TestCache_New_PanicsOnBadCapacity(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("New must panic on Capacity <= 0")
		}
	}()
	New[string, int](Options[string, int]{Capacity: 0})
}

// Operations on a closed cache degrade to no-ops/misses rather than
// panicking or corrupting state.
func TestCache_Close_Degrades(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options[string, int]{Capacity: 8})
	c.Put("a", 1)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}

	if c.Add("b", 2) {
		t.Fatal("Add after Close must report false")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get after Close must miss")
	}
}
