package httpx

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"icc.tech/parkgate/internal/log"
	"icc.tech/parkgate/internal/metrics"
)

// Stages of an outbound exchange. A failure callback always names the
// stage that broke so the caller can tell a DNS problem from a dead
// backend.
const (
	StageResolve = "resolve"
	StageConnect = "connect"
	StageWrite   = "write"
	StageRead    = "read"
)

// State of a request session. The session advances linearly; there is
// no retry and no reuse.
type State int

const (
	StateResolving State = iota
	StateConnecting
	StateWriting
	StateReading
	StateDone
	StateFailed
)

// Response is the payload handed to the success callback.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// SuccessFunc receives the parsed response of a completed exchange.
type SuccessFunc func(*Response)

// FailureFunc receives the failed stage and the transport error text.
type FailureFunc func(stage string, detail string)

// RequestSession performs one POST: resolve, connect, write, read,
// done. It is single-use and owned by the Client that spawned it; the
// Client removes it from its in-flight registry on completion.
type RequestSession struct {
	id     string
	client *Client
	state  State
	lg     log.Logger
}

// State reports how far the session has advanced.
func (s *RequestSession) State() State { return s.state }

func (s *RequestSession) run(host string, port int, target string, body []byte, onSuccess SuccessFunc, onFailure FailureFunc) {
	defer s.client.release(s.id)

	ctx, cancel := context.WithTimeout(context.Background(), s.client.timeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	fail := func(stage string, err error) {
		s.state = StateFailed
		metrics.HTTPClientRequestsTotal.WithLabelValues(target, stage).Inc()
		s.lg.WithError(err).Debugf("post %s failed at %s", target, stage)
		if onFailure != nil {
			onFailure(stage, err.Error())
		}
	}

	s.state = StateResolving
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		fail(StageResolve, err)
		return
	}
	if len(addrs) == 0 {
		fail(StageResolve, fmt.Errorf("no addresses for host %s", host))
		return
	}

	s.state = StateConnecting
	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addrs[0], strconv.Itoa(port)))
	if err != nil {
		fail(StageConnect, err)
		return
	}
	defer conn.Close()
	_ = conn.SetDeadline(deadline)

	s.state = StateWriting
	req, err := http.NewRequest(http.MethodPost,
		"http://"+net.JoinHostPort(host, strconv.Itoa(port))+target,
		bytes.NewReader(body))
	if err != nil {
		fail(StageWrite, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if err := req.Write(conn); err != nil {
		fail(StageWrite, err)
		return
	}

	s.state = StateReading
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		fail(StageRead, err)
		return
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		fail(StageRead, err)
		return
	}

	// One exchange per connection: shut the send side down, then drop it.
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}

	s.state = StateDone
	metrics.HTTPClientRequestsTotal.WithLabelValues(target, "success").Inc()
	if onSuccess != nil {
		onSuccess(&Response{Status: resp.StatusCode, Header: resp.Header, Body: respBody})
	}
}
