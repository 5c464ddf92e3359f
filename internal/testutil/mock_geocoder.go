// Package testutil provides testing utilities for the geocoding client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Candidate is one search hit returned by the mock.
type Candidate struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name,omitempty"`
}

// MockStep defines the behavior of the mock for one request.
type MockStep struct {
	StatusCode int
	Candidates []Candidate
	Body       string // overrides Candidates when set
	Headers    map[string]string
	Delay      time.Duration

	// Drop closes the connection without a response, producing a transport error.
	Drop bool
}

// MockGeocoder is a scripted Nominatim-style /search server for testing.
// Each query follows its own script; the last step repeats once the
// script is used up.
type MockGeocoder struct {
	server *httptest.Server

	mu         sync.Mutex
	scripts    map[string][]MockStep
	fallback   MockStep
	requests   map[string]int
	timestamps map[string][]time.Time
	inFlight   int
	peak       int
	lastHeader http.Header
}

// NewMockGeocoder creates a new mock geocoder. Unscripted queries get an
// empty result.
func NewMockGeocoder() *MockGeocoder {
	mock := &MockGeocoder{
		scripts:    make(map[string][]MockStep),
		fallback:   NewEmptyStep(),
		requests:   make(map[string]int),
		timestamps: make(map[string][]time.Time),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", mock.handleSearch)
	mock.server = httptest.NewServer(mux)

	return mock
}

// URL returns the mock server URL.
func (m *MockGeocoder) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGeocoder) Close() {
	m.server.Close()
}

// Script sets the steps served for a query, in order.
func (m *MockGeocoder) Script(query string, steps ...MockStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[query] = steps
}

// SetFallback sets the step served for unscripted queries.
func (m *MockGeocoder) SetFallback(step MockStep) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = step
}

// Reset clears all tracking counters but keeps scripts.
func (m *MockGeocoder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]int)
	m.timestamps = make(map[string][]time.Time)
	m.inFlight = 0
	m.peak = 0
	m.lastHeader = nil
}

// RequestCount returns the number of requests made for a query.
func (m *MockGeocoder) RequestCount(query string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[query]
}

// TotalRequests returns the number of requests across all queries.
func (m *MockGeocoder) TotalRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.requests {
		total += n
	}
	return total
}

// RequestTimes returns when each request for a query arrived.
func (m *MockGeocoder) RequestTimes(query string) []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.timestamps[query]...)
}

// PeakInFlight returns the highest number of requests served concurrently.
func (m *MockGeocoder) PeakInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockGeocoder) LastRequestHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeader
}

func (m *MockGeocoder) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	m.mu.Lock()
	n := m.requests[query]
	m.requests[query] = n + 1
	m.timestamps[query] = append(m.timestamps[query], time.Now())
	m.lastHeader = r.Header.Clone()
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}

	step := m.fallback
	if script, ok := m.scripts[query]; ok && len(script) > 0 {
		if n >= len(script) {
			n = len(script) - 1
		}
		step = script[n]
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if step.Delay > 0 {
		time.Sleep(step.Delay)
	}

	if step.Drop {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijacking not supported", http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			return
		}
		conn.Close()
		return
	}

	for key, value := range step.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	status := step.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if step.Body != "" {
		w.Write([]byte(step.Body))
		return
	}
	if status == http.StatusOK {
		candidates := step.Candidates
		if candidates == nil {
			candidates = []Candidate{}
		}
		json.NewEncoder(w).Encode(candidates)
	}
}

// NewFoundStep creates a 200 response with a single candidate.
func NewFoundStep(lat, lon string) MockStep {
	return MockStep{
		StatusCode: http.StatusOK,
		Candidates: []Candidate{{Lat: lat, Lon: lon}},
	}
}

// NewEmptyStep creates a 200 response with zero candidates.
func NewEmptyStep() MockStep {
	return MockStep{StatusCode: http.StatusOK, Candidates: []Candidate{}}
}

// NewRateLimitStep creates a 429 Too Many Requests response. An empty
// retryAfter omits the header.
func NewRateLimitStep(retryAfter string) MockStep {
	step := MockStep{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Too many requests"}`,
	}
	if retryAfter != "" {
		step.Headers = map[string]string{"Retry-After": retryAfter}
	}
	return step
}

// NewServerErrorStep creates a 500 Internal Server Error response.
func NewServerErrorStep() MockStep {
	return MockStep{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewDropStep creates a step that drops the connection.
func NewDropStep() MockStep {
	return MockStep{Drop: true}
}

// NewMalformedStep creates a 200 response whose body is not a candidate list.
func NewMalformedStep() MockStep {
	return MockStep{StatusCode: http.StatusOK, Body: `<html>maintenance</html>`}
}
