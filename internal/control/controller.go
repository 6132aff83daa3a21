// Package control defines the boundary to the parking business logic.
// The agent's job ends here: handlers on the event bus translate typed
// events into Controller calls and nothing more. The real state machine
// behind this interface lives outside this codebase.
package control

import (
	"icc.tech/parkgate/internal/log"
)

// Signal names the digital inputs the DIO layer reports on.
type Signal string

const (
	SignalLoop               Signal = "loop"
	SignalIntercom           Signal = "intercom"
	SignalDoor               Signal = "door"
	SignalBarrier            Signal = "barrier"
	SignalArm                Signal = "arm"
	SignalLorrySensor        Signal = "lorry_sensor"
	SignalBarrierOpenTooLong Signal = "barrier_open_too_long"
)

// Controller is implemented by the business-rule state machine. Every
// method is invoked synchronously from an event handler and must return
// quickly; anything slow belongs on the controller's own goroutine.
type Controller interface {
	// OnDioChanged reports a digital input edge. code is the raw DIO
	// signal code from the hardware layer.
	OnDioChanged(signal Signal, on bool, code int)

	// OnPlate reports a complete license-plate record (serialized in
	// the camera wire layout).
	OnPlate(record string)

	// OnBarcode reports a scanned ticket barcode.
	OnBarcode(code string)

	// OnPayResult reports a completed Touch-n-Go payment.
	OnPayResult(orderID string)

	// OnCardNumber reports an uploaded card number.
	OnCardNumber(cardNo string)
}

// LogController is a stand-in Controller for bring-up and tests: it
// logs every call and does nothing else.
type LogController struct {
	lg log.Logger
}

func NewLogController() *LogController {
	return &LogController{lg: log.GetLogger().WithField("component", "control")}
}

func (c *LogController) OnDioChanged(signal Signal, on bool, code int) {
	c.lg.WithFields(map[string]interface{}{
		"signal": string(signal),
		"on":     on,
		"code":   code,
	}).Info("dio changed")
}

func (c *LogController) OnPlate(record string) {
	c.lg.WithField("record", record).Info("plate received")
}

func (c *LogController) OnBarcode(code string) {
	c.lg.WithField("barcode", code).Info("barcode received")
}

func (c *LogController) OnPayResult(orderID string) {
	c.lg.WithField("order_id", orderID).Info("pay result received")
}

func (c *LogController) OnCardNumber(cardNo string) {
	c.lg.WithField("card_no", cardNo).Info("card number received")
}
