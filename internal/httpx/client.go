// Package httpx implements the agent's asynchronous HTTP plumbing: a
// one-shot client session per outbound request and a one-request-per-
// connection inbound server. Neither side keeps connections alive; the
// payment backend's contract is strictly one exchange per socket.
package httpx

import (
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"icc.tech/parkgate/internal/log"
)

const defaultRequestTimeout = 10 * time.Second

// Client spawns one RequestSession per call and tracks it until the
// exchange completes. Stateless beyond the in-flight registry.
type Client struct {
	timeout time.Duration
	lg      log.Logger

	mu       sync.Mutex
	inFlight map[string]*RequestSession
	closed   bool
	wg       sync.WaitGroup
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		timeout:  timeout,
		lg:       log.GetLogger().WithField("component", "httpclient"),
		inFlight: map[string]*RequestSession{},
	}
}

// StartPost begins an asynchronous POST and returns the session id.
// Control returns immediately; exactly one of onSuccess / onFailure
// fires later, from the session's own goroutine. A fixed timeout bounds
// the whole exchange; expiry surfaces through onFailure, never a hang.
// After Shutdown, onFailure is invoked before StartPost returns.
func (c *Client) StartPost(host string, port int, target string, body []byte, onSuccess SuccessFunc, onFailure FailureFunc) string {
	s := &RequestSession{
		id:     uuid.NewV4().String(),
		client: c,
		lg:     c.lg,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		// Synchronous on purpose: a goroutine here could fire the
		// callback after Shutdown has returned.
		if onFailure != nil {
			onFailure(StageConnect, "client is shut down")
		}
		return s.id
	}
	c.inFlight[s.id] = s
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		s.run(host, port, target, body, onSuccess, onFailure)
	}()
	return s.id
}

// InFlight returns the number of sessions still running.
func (c *Client) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// Shutdown rejects new sessions and waits for running ones. Their
// deadlines bound the wait.
func (c *Client) Shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Client) release(id string) {
	c.mu.Lock()
	delete(c.inFlight, id)
	c.mu.Unlock()
}
