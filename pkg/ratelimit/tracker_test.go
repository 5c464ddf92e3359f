package ratelimit

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTracker_Observe(t *testing.T) {
	buf := &bytes.Buffer{}
	tracker := NewTracker(zerolog.New(buf))
	now := time.Now()

	if _, limited := tracker.Observe("Paris, France", http.StatusOK, http.Header{}, now); limited {
		t.Error("200 should not be rate limited")
	}

	header := http.Header{}
	header.Set(HeaderRetryAfter, "2")
	wait, limited := tracker.Observe("Busy", http.StatusTooManyRequests, header, now)
	if !limited {
		t.Fatal("429 should be rate limited")
	}
	if wait != 2*time.Second {
		t.Errorf("wait = %v, want 2s", wait)
	}

	if _, limited := tracker.Observe("Busy", http.StatusTooManyRequests, http.Header{}, now); !limited {
		t.Fatal("429 should be rate limited")
	}

	stats := tracker.Stats()
	if stats.Responses != 2 {
		t.Errorf("Responses = %d, want 2", stats.Responses)
	}
	if stats.TotalWait != 2*time.Second+DefaultWait {
		t.Errorf("TotalWait = %v, want %v", stats.TotalWait, 2*time.Second+DefaultWait)
	}
	if stats.MaxWait != DefaultWait {
		t.Errorf("MaxWait = %v, want %v", stats.MaxWait, DefaultWait)
	}

	if !strings.Contains(buf.String(), `"entity":"Busy"`) {
		t.Errorf("expected log line for Busy, got %q", buf.String())
	}
}

func TestTracker_ObserveHTTPDateUsesGivenTime(t *testing.T) {
	tracker := NewTracker(zerolog.Nop())
	now := time.Date(2030, time.January, 2, 15, 4, 5, 0, time.UTC)

	header := http.Header{}
	header.Set(HeaderRetryAfter, now.Add(7*time.Second).Format(http.TimeFormat))

	wait, limited := tracker.Observe("Busy", http.StatusTooManyRequests, header, now)
	if !limited {
		t.Fatal("429 should be rate limited")
	}
	if wait != 7*time.Second {
		t.Errorf("wait = %v, want 7s", wait)
	}
	if stats := tracker.Stats(); stats.TotalWait != 7*time.Second {
		t.Errorf("TotalWait = %v, want 7s", stats.TotalWait)
	}
}
