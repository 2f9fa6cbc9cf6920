package sloghooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/tiercache"
)

func newJSONHooks(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func lines(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, ln := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if ln == "" {
			continue
		}
		m := map[string]any{}
		_ = json.Unmarshal([]byte(ln), &m)
		out = append(out, m)
	}
	return out
}

func TestRedactsKeysByDefault(t *testing.T) {
	h, buf := newJSONHooks(Options{})
	h.Promoted("user:secret", 2, 2)

	got := lines(buf)
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	if got[0]["msg"] != "tiercache.promoted" {
		t.Fatalf("unexpected msg %v", got[0]["msg"])
	}
	if k, _ := got[0]["key"].(string); k == "user:secret" || len(k) != 16 {
		t.Fatalf("key not redacted: %q", k)
	}
}

func TestCustomRedactor(t *testing.T) {
	h, buf := newJSONHooks(Options{Redact: func(string) string { return "***" }})
	h.ProducerFailed("k", errors.New("db down"))

	got := lines(buf)
	if len(got) != 1 || got[0]["key"] != "***" || got[0]["err"] != "db down" {
		t.Fatalf("unexpected output: %v", got)
	}
}

func TestSamplingHits(t *testing.T) {
	h, buf := newJSONHooks(Options{HitEvery: 3})
	for i := 0; i < 9; i++ {
		h.TierHit(0, "k")
	}
	if n := len(lines(buf)); n != 3 {
		t.Fatalf("expected 3 sampled lines, got %d", n)
	}
}

func TestTierErrorAlwaysLogged(t *testing.T) {
	h, buf := newJSONHooks(Options{HitEvery: 100})
	h.TierError(tiercache.OpSet, 1, errors.New("conn reset"))

	got := lines(buf)
	if len(got) != 1 || got[0]["op"] != "set" || got[0]["level"] != "ERROR" {
		t.Fatalf("unexpected output: %v", got)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.TierHit(0, "k")
	h.Miss("k")
	h.SetRejected(0, "k")
	h.SelfHeal("k", "value_decode")
}
