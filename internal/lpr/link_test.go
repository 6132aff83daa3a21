package lpr

import (
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icc.tech/parkgate/internal/eventbus"
	"icc.tech/parkgate/internal/scheduler"
)

// fakeCamera is a TCP listener standing in for camera firmware.
type fakeCamera struct {
	ln    net.Listener
	conns chan net.Conn
}

func newFakeCamera(t *testing.T) *fakeCamera {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	fc := &fakeCamera{ln: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			fc.conns <- conn
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return fc
}

func (fc *fakeCamera) hostPort(t *testing.T) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(fc.ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func (fc *fakeCamera) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case conn := <-fc.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("camera got no connection")
		return nil
	}
}

type eventSink struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (s *eventSink) handler(ev eventbus.Event) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

func (s *eventSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *eventSink) last() eventbus.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func newTestLink(t *testing.T, fc *fakeCamera) (*Link, *eventSink) {
	t.Helper()
	host, port := fc.hostPort(t)

	bus := eventbus.New()
	sink := &eventSink{}
	require.NoError(t, bus.Subscribe(eventbus.EventLprReceived, sink.handler))
	bus.Seal()

	sched := scheduler.New()
	t.Cleanup(sched.StopAll)

	link := New(Config{
		Front:           CameraConfig{Enabled: true, Host: host, Port: port, Channel: 1},
		ReconnectPeriod: 20 * time.Millisecond,
	}, bus, sched)
	t.Cleanup(link.Stop)

	link.Start()
	return link, sink
}

func TestLink_EmitsEventPerFrame(t *testing.T) {
	fc := newFakeCamera(t)
	_, sink := newTestLink(t, fc)
	cam := fc.accept(t)
	defer cam.Close()

	_, err := cam.Write(wireFrame("front|ABC1234|T1|/img/1.jpg"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	ev := sink.last()
	assert.Equal(t, eventbus.EventLprReceived, ev.Name)
	payload, err := ev.Payload.Str()
	require.NoError(t, err)
	assert.Equal(t, "front|ABC1234|T1|/img/1.jpg", payload)
}

func TestLink_ReconnectsAfterRemoteClose(t *testing.T) {
	fc := newFakeCamera(t)
	_, sink := newTestLink(t, fc)

	first := fc.accept(t)
	first.Close()

	// The supervisor must dial again and the new link must work.
	second := fc.accept(t)
	defer second.Close()

	_, err := second.Write(wireFrame("front|NEW9999"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestLink_SendTransactionID(t *testing.T) {
	fc := newFakeCamera(t)
	link, _ := newTestLink(t, fc)
	cam := fc.accept(t)
	defer cam.Close()

	require.Eventually(t, link.front.conn.Connected, 2*time.Second, 5*time.Millisecond)

	link.SendTransactionID("TX42", true)

	buf := make([]byte, 64)
	cam.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := cam.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, string([]byte{STX})+"1|TX42"+string([]byte{ETX}), string(buf[:n]))
}

func TestLink_SendToAbsentCameraIsDropped(t *testing.T) {
	fc := newFakeCamera(t)
	link, _ := newTestLink(t, fc)

	// Rear camera is not configured; must log and return, never panic.
	assert.NotPanics(t, func() {
		link.SendTransactionID("TX1", false)
	})
}

func TestSupervisor_NoAttemptsWhileConnected(t *testing.T) {
	fc := newFakeCamera(t)
	host, port := fc.hostPort(t)

	bus := eventbus.New()
	bus.Seal()
	cam := newCamera("front", CameraConfig{Enabled: true, Host: host, Port: port, Channel: 1}, Config{
		Separator:       DefaultSeparator,
		ReconnectPeriod: time.Hour,
	}, bus)
	defer cam.conn.Shutdown()

	cam.conn.Connect()
	fc.accept(t)
	require.Eventually(t, cam.conn.Connected, 2*time.Second, 5*time.Millisecond)

	for i := 0; i < 100; i++ {
		cam.superviseTick()
	}
	assert.Equal(t, int64(0), atomic.LoadInt64(&cam.attempts))
}

func TestSupervisor_AttemptsWhileDisconnected(t *testing.T) {
	bus := eventbus.New()
	bus.Seal()
	cam := newCamera("front", CameraConfig{Enabled: true, Host: "127.0.0.1", Port: 1, Channel: 1}, Config{
		Separator:       DefaultSeparator,
		ReconnectPeriod: time.Hour,
		DialTimeout:     100 * time.Millisecond,
	}, bus)
	defer cam.conn.Shutdown()

	cam.superviseTick()
	assert.Equal(t, int64(1), atomic.LoadInt64(&cam.attempts))
}

func TestSupervisor_EdgeHandlingAcrossReconnect(t *testing.T) {
	fc := newFakeCamera(t)
	host, port := fc.hostPort(t)

	bus := eventbus.New()
	bus.Seal()
	cam := newCamera("front", CameraConfig{Enabled: true, Host: host, Port: port, Channel: 1}, Config{
		Separator:       DefaultSeparator,
		ReconnectPeriod: time.Hour,
		DialTimeout:     time.Second,
	}, bus)
	defer cam.conn.Shutdown()

	cam.conn.Connect()
	first := fc.accept(t)
	require.Eventually(t, func() bool { return cam.up }, 2*time.Second, 5*time.Millisecond)

	// Ticks while up neither attempt a dial nor reset the edge state.
	for i := 0; i < 5; i++ {
		cam.superviseTick()
	}
	assert.True(t, cam.up)
	assert.Equal(t, int64(0), atomic.LoadInt64(&cam.attempts))

	// Losing the link flips the edge exactly once.
	first.Close()
	require.Eventually(t, func() bool { return !cam.up }, 2*time.Second, 5*time.Millisecond)

	// A single tick restores the link and the edge flips back.
	cam.superviseTick()
	second := fc.accept(t)
	defer second.Close()
	require.Eventually(t, func() bool { return cam.up }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&cam.attempts))
}
