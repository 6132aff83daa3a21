package httpx

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"icc.tech/parkgate/internal/log"
	"icc.tech/parkgate/internal/metrics"
)

// Request is the single inbound exchange a server session reads.
type Request struct {
	Method     string
	Path       string
	Header     http.Header
	Body       []byte
	RemoteAddr string
}

// Reply is what the handler returns; the session writes it verbatim.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// HandlerFunc maps one request to one reply. It runs synchronously on
// the session goroutine and must not block.
type HandlerFunc func(*Request) *Reply

// ServerConfig holds the listen endpoint and session limits.
type ServerConfig struct {
	Host        string
	Port        int
	ReadTimeout time.Duration
	MaxSessions int
	MaxBodySize int64
}

const (
	defaultReadTimeout = 30 * time.Second
	defaultMaxSessions = 64
	defaultMaxBodySize = 1 << 20 // 1 MiB

	acceptRetryDelay = 50 * time.Millisecond
)

// Server accepts connections and serves exactly one request per
// connection: read, handle, write, shut down the send side, close. The
// accept loop re-arms after every attempt, so one failed accept never
// stops the listener.
type Server struct {
	cfg     ServerConfig
	handler HandlerFunc
	lg      log.Logger

	ln     net.Listener
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewServer binds and listens immediately. On failure it invokes
// onFailure and returns an inert server whose Run is a no-op; there is
// no partial retry. (Go's TCP listener sets SO_REUSEADDR itself.)
func NewServer(cfg ServerConfig, handler HandlerFunc, onFailure func(error)) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		lg:      log.GetLogger().WithField("component", "httpserver"),
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.lg.WithError(err).Errorf("listen on %s failed", addr)
		if onFailure != nil {
			onFailure(err)
		}
		return s
	}
	s.ln = netutil.LimitListener(ln, cfg.MaxSessions)
	return s
}

// Listening reports whether construction succeeded.
func (s *Server) Listening() bool {
	return s.ln != nil
}

// Addr returns the bound address, or nil for an inert server.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run starts the accept loop. No-op on an inert server.
func (s *Server) Run() {
	if s.ln == nil {
		return
	}
	s.wg.Add(1)
	go s.acceptLoop()
	s.lg.Infof("listening on %s", s.ln.Addr())
}

// Shutdown stops accepting, closes the listener, and waits for every
// session. No handler runs after Shutdown returns.
func (s *Server) Shutdown() {
	if s.ln == nil {
		return
	}
	s.closed.Store(true)
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			// Re-arm: a single failed accept never stops the listener.
			// The delay keeps a persistent error (fd exhaustion) from
			// spinning the loop.
			s.lg.WithError(err).Warn("accept failed")
			time.Sleep(acceptRetryDelay)
			continue
		}
		s.wg.Add(1)
		go s.session(conn)
	}
}

// session serves one inbound exchange and dies.
func (s *Server) session(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		s.lg.WithError(err).Debug("dropping connection with unreadable request")
		return
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, s.cfg.MaxBodySize))
	req.Body.Close()
	if err != nil {
		s.lg.WithError(err).Debug("dropping connection with unreadable body")
		return
	}

	reply := s.handler(&Request{
		Method:     req.Method,
		Path:       req.URL.Path,
		Header:     req.Header,
		Body:       body,
		RemoteAddr: conn.RemoteAddr().String(),
	})
	if reply == nil {
		reply = &Reply{Status: http.StatusInternalServerError, ContentType: "text/plain", Body: []byte("empty reply")}
	}

	metrics.HTTPServerRequestsTotal.WithLabelValues(req.URL.Path, strconv.Itoa(reply.Status)).Inc()

	resp := http.Response{
		StatusCode:    reply.Status,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{reply.ContentType}},
		Body:          io.NopCloser(bytes.NewReader(reply.Body)),
		ContentLength: int64(len(reply.Body)),
		Close:         true,
	}
	if err := resp.Write(conn); err != nil {
		s.lg.WithError(err).Debug("response write failed")
		return
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
}
