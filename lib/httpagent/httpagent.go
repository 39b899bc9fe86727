package httpagent

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"time"
)

// Agent sends requests with a shared client
type Agent struct {
	client *http.Client
}

// New creates an agent with the given request timeout
func New(timeout time.Duration) *Agent {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Agent{client: &http.Client{Timeout: timeout}}
}

// Get sends a GET request
func (a *Agent) Get(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	return a.Do(ctx, http.MethodGet, url, nil, headers)
}

// PostJSON sends an already encoded JSON body
func (a *Agent) PostJSON(ctx context.Context, url string, body []byte, headers map[string]string) (int, []byte, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return a.Do(ctx, http.MethodPost, url, body, headers)
}

// Do sends the request and returns the status code and the full body
func (a *Agent) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}
