package testutil

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/taxbridge/taxbridge/internal/httpclient"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MockHTTPClient implements a mock HTTP client for testing
type MockHTTPClient struct {
	mu       sync.RWMutex
	routes   map[string][]MockResponse
	served   map[string]int
	Requests []*httpclient.Request
}

// MockResponse represents a mock HTTP response
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string][]MockResponse),
		served: make(map[string]int),
	}
}

// RegisterResponse queues a mock response for a given URL suffix. Repeat
// registrations for the same suffix are served in order, the last one
// repeating.
func (m *MockHTTPClient) RegisterResponse(url string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = append(m.routes[url], resp)
}

// RegisterTaxResponse is a helper that wraps a JSON payload in the tax
// service's XML string envelope.
func (m *MockHTTPClient) RegisterTaxResponse(url string, payload any) {
	inner, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	envelope := struct {
		XMLName xml.Name `xml:"string"`
		Value   string   `xml:",chardata"`
	}{Value: string(inner)}
	body, err := xml.Marshal(envelope)
	if err != nil {
		panic(err)
	}

	m.RegisterResponse(url, MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/xml",
		},
	})
}

// Send implements the httpclient.Client interface
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	for route, queue := range m.routes {
		if !strings.HasSuffix(req.URL, route) {
			continue
		}
		idx := m.served[route]
		if idx >= len(queue) {
			idx = len(queue) - 1
		}
		m.served[route]++

		resp := queue[idx]
		return &httpclient.Response{
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			Headers:    resp.Headers,
		}, nil
	}

	return &httpclient.Response{
		StatusCode: http.StatusNotFound,
		Body:       []byte("Not Found"),
		Headers:    map[string]string{},
	}, nil
}

// Clear removes all registered responses and recorded requests
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string][]MockResponse)
	m.served = make(map[string]int)
	m.Requests = nil
}
