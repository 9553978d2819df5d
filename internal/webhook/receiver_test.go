package webhook

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
)

type captured struct {
	mu   sync.Mutex
	seen []Notification
}

func (c *captured) handle(_ context.Context, n Notification) {
	c.mu.Lock()
	c.seen = append(c.seen, n)
	c.mu.Unlock()
}

func (c *captured) all() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.seen...)
}

const succeededBody = `{"anonymization_job_id":"job-1","status":"Succeeded","output_media":"job-1.jpg","output_json":"job-1.json"}`

func post(router http.Handler, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestReceiverAcceptsNotificationWithToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got captured
	router := NewRouter(Options{Path: "/hooks/anon", Token: "s3cret"}, got.handle)

	resp := post(router, "/hooks/anon", "Bearer s3cret", succeededBody)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.Code)
	}

	seen := got.all()
	if len(seen) != 1 {
		t.Fatalf("handled %d notifications, want 1", len(seen))
	}
	n := seen[0]
	if n.AnonymizationJobID != "job-1" || n.Status != client.StatusSucceeded || n.OutputMedia != "job-1.jpg" {
		t.Fatalf("notification = %#v", n)
	}
}

func TestReceiverRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got captured
	router := NewRouter(Options{Token: "s3cret"}, got.handle)

	for _, auth := range []string{"", "Bearer wrong", "Basic s3cret", "Bearer "} {
		resp := post(router, "/", auth, succeededBody)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("auth %q: expected status %d, got %d", auth, http.StatusUnauthorized, resp.Code)
		}
	}
	if len(got.all()) != 0 {
		t.Fatalf("rejected notifications reached the handler")
	}
}

func TestReceiverRejectsInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got captured
	router := NewRouter(Options{}, got.handle)

	for _, body := range []string{`{`, `{"status":"Succeeded"}`, `[]`} {
		resp := post(router, "/", "", body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected status %d, got %d", body, http.StatusBadRequest, resp.Code)
		}
	}
	if len(got.all()) != 0 {
		t.Fatalf("invalid notifications reached the handler")
	}
}

func TestReceiverWithoutTokenAcceptsAnyCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := NewRouter(Options{}, nil)
	resp := post(router, "/", "", `{"anonymization_job_id":"job-2","status":"Failed","error":"bad media"}`)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.Code)
	}
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, listener, NewRouter(Options{}, nil), nil)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not stop after cancel")
	}
}
