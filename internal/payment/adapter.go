// Package payment composes the async HTTP client and server into the
// Touch-n-Go gateway adapter: outbound pay/cancel/enable calls, inbound
// result callbacks republished as events for the control logic.
package payment

import (
	"encoding/json"
	"net/http"
	"time"

	uuid "github.com/satori/go.uuid"

	"icc.tech/parkgate/internal/eventbus"
	"icc.tech/parkgate/internal/httpx"
	"icc.tech/parkgate/internal/log"
)

// Config holds the backend endpoint and the local callback listener.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	ListenHost  string        `mapstructure:"listen_host"`
	ListenPort  int           `mapstructure:"listen_port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	MaxSessions int           `mapstructure:"max_sessions"`
}

// Adapter is the payment gateway boundary. One per process, owned by
// the daemon assembly and handed to collaborators explicitly.
type Adapter struct {
	cfg    Config
	bus    *eventbus.Bus
	client *httpx.Client
	server *httpx.Server
	lg     log.Logger
}

// New builds the adapter and binds its callback server. A bind failure
// is reported through onServerFailure and leaves the server inert.
func New(cfg Config, bus *eventbus.Bus, client *httpx.Client, onServerFailure func(error)) *Adapter {
	a := &Adapter{
		cfg:    cfg,
		bus:    bus,
		client: client,
		lg:     log.GetLogger().WithField("component", "payment"),
	}
	a.server = httpx.NewServer(httpx.ServerConfig{
		Host:        cfg.ListenHost,
		Port:        cfg.ListenPort,
		ReadTimeout: cfg.ReadTimeout,
		MaxSessions: cfg.MaxSessions,
	}, a.handle, onServerFailure)
	return a
}

// Start begins serving inbound result callbacks.
func (a *Adapter) Start() {
	a.server.Run()
}

// Stop shuts the callback server down. The shared HTTP client is owned
// by the assembly and torn down there.
func (a *Adapter) Stop() {
	a.server.Shutdown()
}

// RegisterBusHandlers subscribes the adapter's outbound operations to
// their request events. Must run before the bus is sealed.
func (a *Adapter) RegisterBusHandlers(bus *eventbus.Bus) error {
	if err := bus.Subscribe(eventbus.EventTnGPayRequest, a.onPayRequestEvent); err != nil {
		return err
	}
	if err := bus.Subscribe(eventbus.EventTnGPayCancel, a.onPayCancelEvent); err != nil {
		return err
	}
	return bus.Subscribe(eventbus.EventTnGReaderCtrl, a.onReaderCtrlEvent)
}

// RequestPay posts a pay request. An empty orderID gets a generated
// one; the chosen id is returned so the caller can correlate the later
// PayResult callback.
func (a *Adapter) RequestPay(amount, discount int, enterTime, payTime time.Time, orderID string) string {
	if orderID == "" {
		orderID = uuid.NewV4().String()
	}
	body, err := json.Marshal(PayRequest{
		PayAmount:      amount,
		DiscountAmount: discount,
		EnterTime:      enterTime.Format(TimeLayout),
		PayTime:        payTime.Format(TimeLayout),
		OrderID:        orderID,
	})
	if err != nil {
		a.lg.WithError(err).Error("pay request marshal failed")
		return orderID
	}
	a.post(TargetPayRequest, body)
	return orderID
}

// CancelPay posts a cancellation for a previously issued order.
func (a *Adapter) CancelPay(orderID string) {
	body, _ := json.Marshal(PayCancel{OrderID: orderID})
	a.post(TargetPayCancel, body)
}

// SetReaderEnabled turns the card reader on or off.
func (a *Adapter) SetReaderEnabled(enable bool, orderID string) {
	body, _ := json.Marshal(ReaderCtrl{Enable: enable, OrderID: orderID})
	a.post(TargetReaderCtrl, body)
}

// post fires one outbound call. Completions are logged only; they are
// not republished as events, and a failure is terminal for that call.
func (a *Adapter) post(target string, body []byte) {
	a.client.StartPost(a.cfg.Host, a.cfg.Port, target, body,
		func(resp *httpx.Response) {
			a.lg.WithFields(map[string]interface{}{
				"target": target,
				"status": resp.Status,
			}).Info("payment call completed")
		},
		func(stage, detail string) {
			a.lg.WithFields(map[string]interface{}{
				"target": target,
				"stage":  stage,
				"detail": detail,
			}).Error("payment call failed")
		},
	)
}

func (a *Adapter) onPayRequestEvent(ev eventbus.Event) error {
	raw, err := ev.Payload.Str()
	if err != nil {
		return err
	}
	var req PayRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return err
	}
	if req.OrderID == "" {
		req.OrderID = uuid.NewV4().String()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	a.post(TargetPayRequest, body)
	return nil
}

func (a *Adapter) onPayCancelEvent(ev eventbus.Event) error {
	orderID, err := ev.Payload.Str()
	if err != nil {
		return err
	}
	a.CancelPay(orderID)
	return nil
}

func (a *Adapter) onReaderCtrlEvent(ev eventbus.Event) error {
	enable, err := ev.Payload.Bool()
	if err != nil {
		return err
	}
	a.SetReaderEnabled(enable, uuid.NewV4().String())
	return nil
}

// handle serves one inbound callback request. Routing is a fixed, small
// table; anything else is a well-formed HTTP error, never a dropped
// connection.
func (a *Adapter) handle(req *httpx.Request) *httpx.Reply {
	if req.Method != http.MethodPost {
		return textReply(http.StatusBadRequest, "Method not allowed")
	}

	switch req.Path {
	case RoutePayResult:
		obj, errReply := parseObject(req.Body)
		if errReply != nil {
			return errReply
		}
		orderID, _ := obj["OrderId"].(string)
		a.bus.Dispatch(eventbus.EventPayResult, eventbus.NewString(orderID))
		return jsonReply(http.StatusOK, PayResultAck{State: 0, OrderID: orderID})

	case RouteCardNoUpl:
		obj, errReply := parseObject(req.Body)
		if errReply != nil {
			return errReply
		}
		cardNo, _ := obj["CardNo"].(string)
		a.bus.Dispatch(eventbus.EventTnGCardNumResult, eventbus.NewString(cardNo))
		return jsonReply(http.StatusOK, CardNoAck{State: 0, CardNo: cardNo})

	default:
		return jsonReply(http.StatusNotFound, map[string]string{"error": "Not Found"})
	}
}

// parseObject decodes the body and insists on a JSON object.
func parseObject(body []byte) (map[string]interface{}, *httpx.Reply) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, textReply(http.StatusBadRequest, "Failed to parse Json: "+err.Error())
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, textReply(http.StatusBadRequest, "Invalid JSON format")
	}
	return obj, nil
}

func jsonReply(status int, v interface{}) *httpx.Reply {
	body, _ := json.Marshal(v)
	return &httpx.Reply{Status: status, ContentType: "application/json", Body: body}
}

func textReply(status int, msg string) *httpx.Reply {
	return &httpx.Reply{Status: status, ContentType: "text/plain", Body: []byte(msg)}
}
