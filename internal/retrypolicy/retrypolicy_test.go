package retrypolicy

import (
	"testing"
	"time"
)

func TestIsRetryableStatusCodes(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503, 504} {
		if !IsRetryable(status, "") {
			t.Fatalf("status %d should be retryable", status)
		}
	}
	if IsRetryable(400, "") {
		t.Fatalf("status 400 should not be retryable")
	}
}

func TestIsRetryableTextMatchesCaseInsensitive(t *testing.T) {
	cases := []string{
		"Rate Limit exceeded",
		"server overloaded",
		"Service Unavailable",
		"upstream connect error",
		"connection refused",
		"rate_limit",
	}
	for _, text := range cases {
		if !IsRetryable(200, text) {
			t.Fatalf("text %q should be retryable", text)
		}
	}
	if IsRetryable(200, "not found") {
		t.Fatalf("unrelated text should not be retryable")
	}
}

func TestDelayFormula(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1000 * time.Millisecond},
		{1, 2000 * time.Millisecond},
		{2, 4000 * time.Millisecond},
		{30, BaseDelay * (1 << 30)},
		{31, BaseDelay * (1 << 30)},
		{100, BaseDelay * (1 << 30)},
	}
	for _, c := range cases {
		got := Delay(c.attempt)
		if got != c.want {
			t.Fatalf("Delay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}
