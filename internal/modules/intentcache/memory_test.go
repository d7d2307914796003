package intentcache

import (
	"context"
	"testing"
	"time"

	"tripflow/internal/intent"
)

func cachedIntent(city string) *intent.TripIntent {
	ti := intent.New()
	ti.AddDestination(intent.Destination{City: city, Confidence: 0.95})
	ti.Claim(intent.FieldDestination, intent.SourceUtterance, 0.95)
	return ti
}

func TestKeyIsStable(t *testing.T) {
	a := Key("i want to visit paris")
	b := Key("i want to visit paris")
	if a != b {
		t.Errorf("Key not stable: %s vs %s", a, b)
	}
	if a == Key("i want to visit rome") {
		t.Error("distinct utterances share a key")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute, 10)

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Fatal("hit on an empty cache")
	}
	if err := c.Put(ctx, "k", cachedIntent("Paris")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.DestinationNames()[0] != "Paris" {
		t.Errorf("cached value = %v", got.DestinationNames())
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d/%d, want 1 hit and 1 miss", hits, misses)
	}
}

func TestMemoryCacheCopiesOnGetAndPut(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute, 10)

	original := cachedIntent("Paris")
	_ = c.Put(ctx, "k", original)
	original.AddDestination(intent.Destination{City: "Rome", Confidence: 0.9})

	got, _, _ := c.Get(ctx, "k")
	if len(got.Destinations) != 1 {
		t.Errorf("cache shares state with the caller: %v", got.DestinationNames())
	}

	got.AddDestination(intent.Destination{City: "Oslo", Confidence: 0.9})
	again, _, _ := c.Get(ctx, "k")
	if len(again.Destinations) != 1 {
		t.Errorf("cache shares state across gets: %v", again.DestinationNames())
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute, 10)
	base := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	_ = c.Put(ctx, "k", cachedIntent("Paris"))

	c.now = func() time.Time { return base.Add(59 * time.Second) }
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	c.now = func() time.Time { return base.Add(61 * time.Second) }
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry survived past its TTL")
	}
}

func TestMemoryCacheEvictsOldestInsertion(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute, 2)

	_ = c.Put(ctx, "first", cachedIntent("Paris"))
	_ = c.Put(ctx, "second", cachedIntent("Rome"))
	_ = c.Put(ctx, "third", cachedIntent("Oslo"))

	if _, ok, _ := c.Get(ctx, "first"); ok {
		t.Error("oldest entry still present after exceeding the cap")
	}
	if _, ok, _ := c.Get(ctx, "second"); !ok {
		t.Error("second entry evicted too early")
	}
	if _, ok, _ := c.Get(ctx, "third"); !ok {
		t.Error("newest entry missing")
	}
}

func TestMemoryCacheUpdateKeepsSingleSlot(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute, 2)

	_ = c.Put(ctx, "k", cachedIntent("Paris"))
	_ = c.Put(ctx, "k", cachedIntent("Rome"))
	_ = c.Put(ctx, "other", cachedIntent("Oslo"))

	got, ok, _ := c.Get(ctx, "k")
	if !ok {
		t.Fatal("updated entry missing")
	}
	if got.DestinationNames()[0] != "Rome" {
		t.Errorf("value = %v, want the updated Rome", got.DestinationNames())
	}
	if _, ok, _ := c.Get(ctx, "other"); !ok {
		t.Error("unrelated entry evicted by an update")
	}
}
