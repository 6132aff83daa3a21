// Package lpr turns raw camera TCP streams into license-plate events
// and keeps each camera link alive across outages with a fixed-period
// reconnect supervisor.
package lpr

import (
	"errors"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"icc.tech/parkgate/internal/eventbus"
	"icc.tech/parkgate/internal/log"
	"icc.tech/parkgate/internal/metrics"
	"icc.tech/parkgate/internal/netconn"
	"icc.tech/parkgate/internal/scheduler"
)

// CameraConfig describes one camera endpoint. A disabled camera never
// participates in connect, reconnect, or send.
type CameraConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Channel int    `mapstructure:"channel"`
}

func (c CameraConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Config holds both camera endpoints and their shared link policy.
type Config struct {
	Front           CameraConfig  `mapstructure:"front"`
	Rear            CameraConfig  `mapstructure:"rear"`
	Separator       string        `mapstructure:"separator"`
	ReconnectPeriod time.Duration `mapstructure:"reconnect_period"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// Link manages the front and rear camera connections.
type Link struct {
	sched *scheduler.Scheduler
	front *camera
	rear  *camera
	lg    log.Logger
}

func New(cfg Config, bus *eventbus.Bus, sched *scheduler.Scheduler) *Link {
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}
	if cfg.ReconnectPeriod <= 0 {
		cfg.ReconnectPeriod = 5 * time.Second
	}

	l := &Link{
		sched: sched,
		lg:    log.GetLogger().WithField("component", "lpr"),
	}
	if cfg.Front.Enabled {
		l.front = newCamera("front", cfg.Front, cfg, bus)
	}
	if cfg.Rear.Enabled {
		l.rear = newCamera("rear", cfg.Rear, cfg, bus)
	}
	return l
}

// Start issues the initial connect for each configured camera and
// registers its reconnect supervisor on the scheduler.
func (l *Link) Start() {
	for _, cam := range l.cameras() {
		cam.conn.Connect()
		cam.jobID = l.sched.AddJob(
			"lpr-reconnect-"+cam.name,
			cam.reconnectPeriod,
			cam.superviseTick,
		)
		l.lg.WithField("camera", cam.name).Info("camera link started")
	}
}

// Stop cancels the supervisors first so no reconnect fires mid-teardown,
// then joins each connection.
func (l *Link) Stop() {
	for _, cam := range l.cameras() {
		if cam.jobID != 0 {
			l.sched.RemoveJob(cam.jobID)
		}
	}
	for _, cam := range l.cameras() {
		cam.conn.Shutdown()
	}
}

// SendTransactionID sends a short command frame to the selected camera.
// Fire-and-forget: when the link is down the send fails and is logged,
// never queued or retried.
func (l *Link) SendTransactionID(id string, useFrontCamera bool) {
	cam := l.rear
	if useFrontCamera {
		cam = l.front
	}
	if cam == nil {
		l.lg.WithField("front", useFrontCamera).Warn("transaction id dropped: camera not configured")
		return
	}
	cam.conn.Send(cam.commandFrame(id))
}

func (l *Link) cameras() []*camera {
	cams := make([]*camera, 0, 2)
	if l.front != nil {
		cams = append(cams, l.front)
	}
	if l.rear != nil {
		cams = append(cams, l.rear)
	}
	return cams
}

// camera owns one connection plus its accumulation buffer. ext and up
// are only touched from the connection's lane, so they need no locks.
type camera struct {
	name            string
	channel         int
	sep             string
	reconnectPeriod time.Duration

	conn  *netconn.Conn
	ext   Extractor
	bus   *eventbus.Bus
	lg    log.Logger
	jobID int

	up       bool  // last logged link state, lane-confined
	attempts int64 // supervisor connect attempts, atomic
}

func newCamera(name string, cfg CameraConfig, linkCfg Config, bus *eventbus.Bus) *camera {
	cam := &camera{
		name:            name,
		channel:         cfg.Channel,
		sep:             linkCfg.Separator,
		reconnectPeriod: linkCfg.ReconnectPeriod,
		bus:             bus,
		lg:              log.GetLogger().WithField("camera", name),
	}
	cam.conn = netconn.New(
		netconn.Config{
			Addr:         cfg.addr(),
			DialTimeout:  linkCfg.DialTimeout,
			WriteTimeout: linkCfg.WriteTimeout,
		},
		netconn.Callbacks{
			OnConnect: cam.onConnect,
			OnSend:    cam.onSend,
			OnReceive: cam.onReceive,
			OnClose:   cam.onClose,
		},
	)
	return cam
}

// superviseTick runs on the scheduler at the fixed reconnect period. A
// connect attempt is issued if and only if the link is currently down.
func (cam *camera) superviseTick() {
	if cam.conn.Connected() {
		return
	}
	atomic.AddInt64(&cam.attempts, 1)
	metrics.ReconnectAttemptsTotal.WithLabelValues(cam.name).Inc()
	cam.conn.Connect()
}

func (cam *camera) commandFrame(id string) []byte {
	payload := strconv.Itoa(cam.channel) + cam.sep + id
	frame := make([]byte, 0, len(payload)+2)
	frame = append(frame, STX)
	frame = append(frame, payload...)
	return append(frame, ETX)
}

func (cam *camera) onConnect(ok bool, err error) {
	if ok {
		if !cam.up {
			cam.lg.Info("camera connected")
			cam.up = true
		}
		return
	}
	if errors.Is(err, netconn.ErrAlreadyConnected) {
		// A slow dial outlived the supervisor period; nothing to do.
		return
	}
	cam.lg.WithError(err).Debug("connect attempt failed")
}

func (cam *camera) onReceive(ok bool, data []byte) {
	if !ok {
		if cam.up {
			cam.lg.Warn("camera link lost")
			cam.up = false
		}
		if n := cam.ext.Reset(); n > 0 {
			cam.lg.Debugf("dropped %d buffered byte(s) of partial frame", n)
		}
		return
	}

	frames, discarded := cam.ext.Push(data)
	if discarded > 0 {
		metrics.LprDiscardedBytesTotal.WithLabelValues(cam.name).Add(float64(discarded))
		cam.lg.Debugf("discarded %d byte(s) with no start marker", discarded)
	}
	for _, frame := range frames {
		rec, err := ParseRecord(frame, cam.sep)
		if err != nil {
			metrics.LprParseErrorsTotal.WithLabelValues(cam.name).Inc()
			cam.lg.WithError(err).Warnf("unparsable frame: %q", frame)
			continue
		}
		metrics.LprFramesTotal.WithLabelValues(cam.name).Inc()
		cam.bus.Dispatch(eventbus.EventLprReceived, eventbus.NewString(rec.Serialize(cam.sep)))
	}
}

func (cam *camera) onSend(ok bool, err error) {
	if !ok {
		cam.lg.WithError(err).Error("command send failed")
	}
}

func (cam *camera) onClose(ok bool, err error) {
	if !ok {
		cam.lg.WithError(err).Debug("close reported error")
	}
}
