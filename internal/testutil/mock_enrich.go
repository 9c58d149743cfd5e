// Package testutil provides testing utilities for the enrichment batch client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// MockEnrich is a configurable mock enrichment API server for testing.
// It serves POST /enrich/batch and records every request's query so tests
// can assert the exact cursor parameters on the wire.
type MockEnrich struct {
	server  *httptest.Server
	mu      sync.RWMutex
	pages   map[string]string // start_after_name -> response body
	handler http.HandlerFunc

	// Tracking
	RequestCount int
	Queries      []url.Values
}

// NewMockEnrich creates a new mock enrichment server.
func NewMockEnrich() *MockEnrich {
	mock := &MockEnrich{
		pages: make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.Queries = append(mock.Queries, r.URL.Query())
		handler := mock.handler
		mock.mu.Unlock()

		if handler != nil {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockEnrich) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockEnrich) Close() {
	m.server.Close()
}

// Reset clears tracking state and scripted pages.
func (m *MockEnrich) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.Queries = nil
	m.pages = make(map[string]string)
	m.handler = nil
}

// SetHandler replaces the page script with a custom handler.
func (m *MockEnrich) SetHandler(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// SetPage scripts the response body returned for a given start_after_name
// value. Use startAfterName "" for the unfiltered first page.
func (m *MockEnrich) SetPage(startAfterName, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[startAfterName] = body
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockEnrich) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Queries) == 0 {
		return nil
	}
	return m.Queries[len(m.Queries)-1]
}

// GetRequestCount returns the number of requests received.
func (m *MockEnrich) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler serves scripted pages keyed by start_after_name.
func (m *MockEnrich) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/enrich/batch" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.mu.RLock()
	body, ok := m.pages[r.URL.Query().Get("start_after_name")]
	m.mu.RUnlock()

	if !ok {
		http.Error(w, fmt.Sprintf(`{"error": "no page scripted for cursor %q"}`,
			r.URL.Query().Get("start_after_name")), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, body)
}
