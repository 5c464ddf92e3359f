// Package ratelimit interprets "429 Too Many Requests" responses from the
// geocoding service and computes how long to wait before the next attempt.
// It honors the Retry-After header in both its delta-seconds and HTTP-date
// forms.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HeaderRetryAfter is the response header carrying the server-dictated wait.
const HeaderRetryAfter = "Retry-After"

// DefaultWait is used when a 429 response carries no usable Retry-After value.
const DefaultWait = 5 * time.Second

// RetryAfter returns the wait duration and true if status denotes
// "too many requests". Any other status returns (0, false).
//
// There is no cap on the returned duration; the caller's attempt budget is
// the only bound on cumulative waiting.
func RetryAfter(status int, header http.Header) (time.Duration, bool) {
	return RetryAfterAt(status, header, time.Now())
}

// RetryAfterAt is RetryAfter with an explicit current time.
func RetryAfterAt(status int, header http.Header, now time.Time) (time.Duration, bool) {
	if status != http.StatusTooManyRequests {
		return 0, false
	}

	if wait, ok := parseRetryAfter(header.Get(HeaderRetryAfter), now); ok {
		return wait, true
	}
	return DefaultWait, true
}

// parseRetryAfter parses a Retry-After value. An HTTP-date in the past
// yields a zero wait.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	wait := at.Sub(now)
	if wait < 0 {
		return 0, true
	}
	return wait, true
}
