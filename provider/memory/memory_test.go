package memory

import (
	"context"
	"testing"
	"time"
)

func TestEmptyValueIsAHit(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Set(ctx, "k", []byte{}, 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit for empty value, ok=%v err=%v", ok, err)
	}
	if len(v) != 0 {
		t.Fatalf("expected empty value, got %q", v)
	}
}

func TestValueIsCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	buf := []byte("p1")
	if _, err := s.Set(ctx, "k", buf, 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	buf[0] = 'X'

	v, _, _ := s.Get(ctx, "k")
	if string(v) != "p1" {
		t.Fatalf("stored value changed with caller buffer: %q", v)
	}
	v[0] = 'Y'
	if again, _, _ := s.Get(ctx, "k"); string(again) != "p1" {
		t.Fatalf("stored value changed through returned slice: %q", again)
	}
}

func TestTTLExpires(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	if _, err := s.Set(ctx, "k", []byte("v"), 1, time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	now = now.Add(2 * time.Second)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after expiry")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry should be dropped on read, len=%d", s.Len())
	}
}

func TestDelAbsentAndClear(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Del(ctx, "nope"); err != nil {
		t.Fatalf("Del of absent key: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		_, _ = s.Set(ctx, k, []byte(k), 1, 0)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Clear left %d entries", s.Len())
	}
}
