package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portkeeper/internal/models"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientFor(strings.TrimPrefix(srv.URL, "http://"), 2*time.Second)
}

func TestClientGet(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portkeeper/api/v1/tunnels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("verbose") != "true" {
			t.Errorf("missing query parameter, got %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]models.StatusResponse{})
	}))

	resp, err := c.Get("/portkeeper/api/v1/tunnels", map[string]string{"verbose": "true"})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !resp.Ok() {
		t.Errorf("expected 2xx, got %d", resp.StatusCode)
	}
}

func TestClientPostDecodesBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.StartTunnelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.InstanceID != "inst-1" {
			t.Errorf("unexpected instance %q", req.InstanceID)
		}
		json.NewEncoder(w).Encode(models.TunnelResponse{InstanceID: req.InstanceID, Status: "success"})
	}))

	resp, err := c.Post("/portkeeper/api/v1/tunnels", models.StartTunnelRequest{InstanceID: "inst-1"})
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	var out models.TunnelResponse
	if err := resp.Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.InstanceID != "inst-1" || out.Status != "success" {
		t.Errorf("unexpected response %+v", out)
	}
}

func TestClientErrorBody(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "tunnel already running"})
	}))

	resp, err := c.Delete("/portkeeper/api/v1/tunnels/inst-1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if resp.Ok() {
		t.Error("409 must not report ok")
	}
	if resp.Error != "tunnel already running" {
		t.Errorf("server error text must surface, got %q", resp.Error)
	}
}

func TestClientAvailable(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if !c.Available() {
		t.Error("daemon answering /healthz must be available")
	}

	down := NewClientFor("127.0.0.1:1", 200*time.Millisecond)
	if down.Available() {
		t.Error("unreachable daemon must not be available")
	}
}
