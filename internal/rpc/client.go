// Package rpc is the loopback HTTP client the CLI uses to talk to a
// running keeper daemon. Commands try the daemon first and fall back to
// acting locally when it is not up.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portkeeper/internal/config"
	"portkeeper/internal/logger"
	"portkeeper/internal/models"
)

// Response is the decoded outcome of one daemon request. Error carries
// the server's error text for non-2xx statuses.
type Response struct {
	StatusCode int
	Body       []byte
	Error      string
}

// Ok reports whether the request succeeded at the HTTP level.
func (r *Response) Ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out interface{}) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to parse daemon response: %w", err)
	}
	return nil
}

// Client talks to the keeper's loopback HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client against the configured listen address.
func NewClient() *Client {
	return NewClientFor(config.Config.Server.Address, 5*time.Second)
}

// NewClientFor builds a client against an explicit host:port.
func NewClientFor(address string, timeout time.Duration) *Client {
	return &Client{
		baseURL: "http://" + address,
		http:    &http.Client{Timeout: timeout},
	}
}

// Available reports whether a keeper daemon answers on the loopback
// address. Used by the CLI to decide between RPC and local execution.
func (c *Client) Available() bool {
	resp, err := c.Get("/healthz", nil)
	if err != nil {
		return false
	}
	return resp.Ok()
}

// Get sends a GET request to the daemon.
func (c *Client) Get(path string, params map[string]string) (*Response, error) {
	u, err := c.buildURL(path, params)
	if err != nil {
		return nil, err
	}
	return c.do(http.MethodGet, u, nil)
}

// Post sends a POST request with a JSON body to the daemon.
func (c *Client) Post(path string, data interface{}) (*Response, error) {
	u, err := c.buildURL(path, nil)
	if err != nil {
		return nil, err
	}
	var body io.Reader
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	return c.do(http.MethodPost, u, body)
}

// Delete sends a DELETE request to the daemon.
func (c *Client) Delete(path string) (*Response, error) {
	u, err := c.buildURL(path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(http.MethodDelete, u, nil)
}

func (c *Client) buildURL(path string, params map[string]string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid daemon address: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if len(params) > 0 {
		q := u.Query()
		for key, value := range params {
			q.Set(key, value)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) do(method, url string, body io.Reader) (*Response, error) {
	logger.Debugf("Sending %s request to %s", method, url)

	ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (*Response, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: body}
	if out.Ok() {
		return out, nil
	}

	var errBody models.ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
		out.Error = errBody.Error
	} else {
		out.Error = resp.Status
	}
	return out, nil
}
