// Package netconn implements the asynchronous TCP client every link in
// the agent is built on: one socket, one execution lane, callbacks
// delivered strictly one at a time and in issue order. Failure is never
// raised across this boundary; it always arrives through a callback.
package netconn

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/tevino/abool"

	"icc.tech/parkgate/internal/log"
)

var (
	ErrNotConnected     = errors.New("connection is not established")
	ErrAlreadyConnected = errors.New("connection is already established")
)

// Callbacks receive every completion for one Conn. All of them run on
// the connection's lane; none may block for long and none may call
// Shutdown. OnReceive gets exactly the bytes read, never a padded
// buffer. Nil callbacks are skipped.
type Callbacks struct {
	OnConnect func(ok bool, err error)
	OnSend    func(ok bool, err error)
	OnReceive func(ok bool, data []byte)
	OnClose   func(ok bool, err error)
}

// Config holds the fixed endpoint and I/O limits for one Conn.
type Config struct {
	Addr           string
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	ReadBufferSize int
}

const defaultReadBufferSize = 4096

// Conn is an asynchronous TCP client bound to one remote endpoint. The
// socket and receive buffer are owned exclusively by the Conn; the
// connected flag is the only state read from other goroutines.
type Conn struct {
	cfg  Config
	cb   Callbacks
	lane *Lane
	lg   log.Logger

	connected *abool.AtomicBool
	closing   *abool.AtomicBool

	mu   sync.Mutex
	sock net.Conn

	recvWG sync.WaitGroup
}

func New(cfg Config, cb Callbacks) *Conn {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = defaultReadBufferSize
	}
	return &Conn{
		cfg:       cfg,
		cb:        cb,
		lane:      NewLane(),
		lg:        log.GetLogger().WithField("remote", cfg.Addr),
		connected: abool.New(),
		closing:   abool.New(),
	}
}

// Connected reports whether the link is currently up. Safe from any
// goroutine; the reconnect supervisor polls this.
func (c *Conn) Connected() bool {
	return c.connected.IsSet()
}

// Connect asynchronously establishes the TCP connection and, on
// success, starts the receive loop. Exactly one connect callback is
// delivered per call, except during Shutdown, when the attempt is
// dropped without dialing. No automatic retry: that policy lives a
// layer up.
func (c *Conn) Connect() {
	c.lane.Submit(func() {
		if c.closing.IsSet() {
			return
		}
		// The socket check also rejects a connect interleaved between a
		// receive failure and the close that follows it.
		if c.connected.IsSet() || c.socket() != nil {
			c.connectDone(false, ErrAlreadyConnected)
			return
		}

		sock, err := net.DialTimeout("tcp", c.cfg.Addr, c.cfg.DialTimeout)
		if err != nil {
			c.connectDone(false, err)
			return
		}

		// Commit under the lock so Shutdown either sees this socket or
		// this task sees the closing flag; recvWG.Add must not race the
		// Wait in Shutdown.
		c.mu.Lock()
		if c.closing.IsSet() {
			c.mu.Unlock()
			_ = sock.Close()
			return
		}
		c.sock = sock
		c.recvWG.Add(1)
		c.mu.Unlock()
		c.connected.Set()

		c.connectDone(true, nil)

		go c.receiveLoop(sock)
	})
}

func (c *Conn) connectDone(ok bool, err error) {
	if c.cb.OnConnect != nil {
		c.cb.OnConnect(ok, err)
	}
}

// Send writes b asynchronously. The payload is copied before Send
// returns, so the caller's buffer may be reused immediately. When the
// connection is down the send fails through the callback without any
// I/O being issued.
func (c *Conn) Send(b []byte) {
	buf := make([]byte, len(b))
	copy(buf, b)

	c.lane.Submit(func() {
		if c.closing.IsSet() {
			return
		}
		if !c.connected.IsSet() {
			c.sendDone(false, ErrNotConnected)
			return
		}
		sock := c.socket()
		if sock == nil {
			c.sendDone(false, ErrNotConnected)
			return
		}
		if c.cfg.WriteTimeout > 0 {
			_ = sock.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		}
		if _, err := sock.Write(buf); err != nil {
			c.sendDone(false, err)
			return
		}
		c.sendDone(true, nil)
	})
}

func (c *Conn) sendDone(ok bool, err error) {
	if c.cb.OnSend != nil {
		c.cb.OnSend(ok, err)
	}
}

// Close shuts the socket down and delivers the close callback once.
// Idempotent: a second Close while already closed is a no-op with no
// callback. Safe to call from a receive-failure path.
func (c *Conn) Close() {
	c.lane.Submit(c.doClose)
}

func (c *Conn) doClose() {
	c.mu.Lock()
	sock := c.sock
	c.sock = nil
	c.mu.Unlock()

	if sock == nil {
		return
	}

	c.connected.UnSet()
	if tc, ok := sock.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	err := sock.Close()
	if c.cb.OnClose != nil {
		c.cb.OnClose(err == nil, err)
	}
}

// Shutdown tears the connection down and joins its goroutines. After
// Shutdown returns, no callback will ever fire again; tasks still
// queued on the lane (a supervisor Connect racing teardown) see the
// closing flag and do nothing. Must be called from outside the lane
// (teardown path, not a callback).
func (c *Conn) Shutdown() {
	c.closing.Set()

	c.mu.Lock()
	sock := c.sock
	c.sock = nil
	c.mu.Unlock()

	c.connected.UnSet()
	if sock != nil {
		_ = sock.Close()
	}

	c.recvWG.Wait()
	c.lane.Close()
}

func (c *Conn) socket() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock
}

// receiveLoop keeps exactly one read outstanding. Each successful read
// is delivered to the lane as-is; a read error marks the link down,
// delivers a failed receive with an empty payload, then closes.
func (c *Conn) receiveLoop(sock net.Conn) {
	defer c.recvWG.Done()
	buf := make([]byte, c.cfg.ReadBufferSize)

	for {
		n, err := sock.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			c.lane.Submit(func() {
				if c.closing.IsSet() {
					return
				}
				if c.cb.OnReceive != nil {
					c.cb.OnReceive(true, data)
				}
			})
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// Deliberate local close, not a link failure.
				return
			}
			c.connected.UnSet()
			c.lg.WithError(err).Debug("receive failed, closing connection")
			// One task for failure delivery plus close, so no connect
			// can slip onto the lane between them.
			c.lane.Submit(func() {
				if c.closing.IsSet() {
					return
				}
				if c.cb.OnReceive != nil {
					c.cb.OnReceive(false, nil)
				}
				c.doClose()
			})
			return
		}
	}
}
