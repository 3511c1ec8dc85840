package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("a = %q, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d", c.Size())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", "refreshed")
	clock.t = clock.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != "refreshed" {
		t.Errorf("b = %q, %v", v, ok)
	}

	clock.t = clock.t.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d", c.Size())
	}
}

func TestLRUCache_ZeroTTLNeverExpires(t *testing.T) {
	c, clock := newTestCache(1, 0)
	c.Set("a", "1")
	clock.t = clock.t.Add(24 * time.Hour)

	if _, ok := c.Get("a"); !ok {
		t.Error("entry should not expire with zero ttl")
	}
}

func TestLRUCache_PurgeAndStats(t *testing.T) {
	c, _ := newTestCache(5, time.Minute)
	c.Set("a", "1")
	c.Get("a")
	c.Get("missing")
	c.Purge()
	c.Get("a")

	s := c.Stats()
	if s.Size != 0 || s.Hits != 1 || s.Misses != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLoader_SharesConcurrentLoads(t *testing.T) {
	l := NewLoader[string](NewLRUCache[string](4, time.Minute))
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := l.Get(context.Background(), "k", func(context.Context) (string, error) {
				calls.Add(1)
				<-release
				return "value", nil
			})
			if err != nil {
				t.Errorf("Get() error = %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() < 1 || calls.Load() > int32(len(results)) {
		t.Fatalf("unexpected load count %d", calls.Load())
	}
	for i, v := range results {
		if v != "value" {
			t.Errorf("result %d = %q", i, v)
		}
	}

	if _, err := l.Get(context.Background(), "k", func(context.Context) (string, error) {
		return "", errors.New("should be cached")
	}); err != nil {
		t.Errorf("expected cached value, got %v", err)
	}
}

func TestLoader_SharedLoadOutlivesFirstCaller(t *testing.T) {
	l := NewLoader[string](NewLRUCache[string](4, time.Minute))
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "value", nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.Get(firstCtx, "k", load)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := l.Get(context.Background(), "k", load)
		second <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}

	close(release)
	got := <-second
	if got.err != nil || got.v != "value" {
		t.Fatalf("second caller = %q, %v", got.v, got.err)
	}
	if calls.Load() != 1 {
		t.Errorf("load ran %d times, want 1", calls.Load())
	}
}

func TestLoader_DoesNotCacheErrors(t *testing.T) {
	l := NewLoader[string](NewLRUCache[string](4, time.Minute))
	boom := errors.New("boom")

	if _, err := l.Get(context.Background(), "k", func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	v, err := l.Get(context.Background(), "k", func(context.Context) (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("Get() = %q, %v", v, err)
	}
}

func TestLoader_Forget(t *testing.T) {
	l := NewLoader[string](NewLRUCache[string](4, time.Minute))
	ctx := context.Background()
	l.Get(ctx, "a", func(context.Context) (string, error) { return "a1", nil })
	l.Get(ctx, "b", func(context.Context) (string, error) { return "b1", nil })

	l.Forget("a")

	a, _ := l.Get(ctx, "a", func(context.Context) (string, error) { return "a2", nil })
	b, _ := l.Get(ctx, "b", func(context.Context) (string, error) { return "b2", nil })
	if a != "a2" || b != "b1" {
		t.Errorf("after Forget(a): a=%q b=%q", a, b)
	}
}

func TestManager_CleanNowAndStop(t *testing.T) {
	c, clock := newTestCache(5, time.Minute)
	c.Set("a", "1")
	clock.t = clock.t.Add(2 * time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d", n)
	}

	m.Stop() // not started: no-op
	m.StartCleanup(context.Background(), time.Hour)
	m.Stop()
}
