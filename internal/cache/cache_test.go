package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMemory_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	defer c.Close()

	now := time.Date(2025, 12, 5, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v, %v", got, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", c.Len())
	}
}

func TestMemory_CleanupAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	now := time.Now()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "old", []byte("1"), time.Second)
	_ = c.Set(ctx, "new", []byte("2"), time.Hour)
	_ = c.Set(ctx, "gone", []byte("3"), time.Hour)
	_ = c.Delete(ctx, "gone")

	now = now.Add(time.Minute)
	c.cleanup()
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(0)
	defer c.Close()

	type payload struct{ N int }
	if err := SetJSON(ctx, c, "p", payload{N: 7}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var out payload
	ok, err := GetJSON(ctx, c, "p", &out)
	if err != nil || !ok || out.N != 7 {
		t.Fatalf("GetJSON = %+v, %v, %v", out, ok, err)
	}

	ok, err = GetJSON(ctx, c, "missing", &out)
	if ok || err != nil {
		t.Fatalf("miss = %v, %v", ok, err)
	}
}

func TestFingerprintAndBuckets(t *testing.T) {
	a := Fingerprint("dashboard", "1", "x")
	b := Fingerprint("dashboard", "1", "x")
	if a != b {
		t.Errorf("fingerprint not stable")
	}
	if Fingerprint("dashboard", "1x") == Fingerprint("dashboard", "1", "x") {
		t.Errorf("part boundaries must affect the fingerprint")
	}
	if !strings.HasPrefix(a, "dashboard:") {
		t.Errorf("missing namespace: %q", a)
	}

	base := time.Date(2025, 12, 5, 10, 0, 0, 0, time.UTC)
	if TimeBucket(base, time.Hour) != TimeBucket(base.Add(59*time.Minute), time.Hour) {
		t.Errorf("same hour should share a bucket")
	}
	if TimeBucket(base, time.Hour) == TimeBucket(base.Add(time.Hour), time.Hour) {
		t.Errorf("next hour should change bucket")
	}
	if Key("s", base, time.Hour, "q") == Key("s", base.Add(2*time.Hour), time.Hour, "q") {
		t.Errorf("key should roll over with the bucket")
	}
}
