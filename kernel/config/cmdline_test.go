package config

import "testing"

func TestParseBareFlagAndKeyValue(t *testing.T) {
	c := Parse("trace_syscalls loglevel=debug root=/dev/sda1")

	if !c.Has("trace_syscalls") {
		t.Fatal("expected trace_syscalls to be present")
	}
	if v, ok := c.Get("trace_syscalls"); !ok || v != "" {
		t.Fatalf("expected bare flag to report ok with empty value, got %q ok=%v", v, ok)
	}
	if v, ok := c.Get("loglevel"); !ok || v != "debug" {
		t.Fatalf("expected loglevel=debug, got %q ok=%v", v, ok)
	}
	if v, ok := c.Get("root"); !ok || v != "/dev/sda1" {
		t.Fatalf("expected root=/dev/sda1, got %q ok=%v", v, ok)
	}
}

func TestGetMissingKey(t *testing.T) {
	c := Parse("foo=bar")
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected missing key to report not-ok")
	}
	if c.Has("missing") {
		t.Fatal("expected Has to report false for a missing key")
	}
}

func TestGetOrFallback(t *testing.T) {
	c := Parse("loglevel=debug")
	if got := c.GetOr("loglevel", "info"); got != "debug" {
		t.Fatalf("expected explicit value to win, got %q", got)
	}
	if got := c.GetOr("missing", "info"); got != "info" {
		t.Fatalf("expected fallback for missing key, got %q", got)
	}
}

func TestLaterTokenWinsOnDuplicateKey(t *testing.T) {
	c := Parse("loglevel=info loglevel=trace")
	if got := c.GetOr("loglevel", ""); got != "trace" {
		t.Fatalf("expected the later duplicate to win, got %q", got)
	}
}

func TestParseIgnoresExtraWhitespace(t *testing.T) {
	c := Parse("  a=1   b=2  \t c=3\n")
	for _, key := range []string{"a", "b", "c"} {
		if !c.Has(key) {
			t.Fatalf("expected %q to be parsed despite surrounding whitespace", key)
		}
	}
}
