package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icc.tech/parkgate/internal/eventbus"
)

type recordingController struct {
	dio     []string
	plates  []string
	barcode []string
	orders  []string
	cards   []string
}

func (c *recordingController) OnDioChanged(signal Signal, on bool, code int) {
	state := "off"
	if on {
		state = "on"
	}
	c.dio = append(c.dio, string(signal)+":"+state)
}
func (c *recordingController) OnPlate(record string)    { c.plates = append(c.plates, record) }
func (c *recordingController) OnBarcode(code string)    { c.barcode = append(c.barcode, code) }
func (c *recordingController) OnPayResult(id string)    { c.orders = append(c.orders, id) }
func (c *recordingController) OnCardNumber(card string) { c.cards = append(c.cards, card) }

func newWiredBus(t *testing.T) (*eventbus.Bus, *recordingController) {
	t.Helper()
	bus := eventbus.New()
	ctrl := &recordingController{}
	require.NoError(t, RegisterHandlers(bus, ctrl))
	bus.Seal()
	return bus, ctrl
}

func TestDioEventsTranslate(t *testing.T) {
	bus, ctrl := newWiredBus(t)

	bus.Dispatch(eventbus.EventLoopOn, eventbus.NewInt(3))
	bus.Dispatch(eventbus.EventBarrierOff, eventbus.NewInt(7))
	bus.Dispatch(eventbus.EventBarrierOpenTooLongOn, eventbus.NewInt(9))

	assert.Equal(t, []string{"loop:on", "barrier:off", "barrier_open_too_long:on"}, ctrl.dio)
}

func TestStringEventsTranslate(t *testing.T) {
	bus, ctrl := newWiredBus(t)

	bus.Dispatch(eventbus.EventLprReceived, eventbus.NewString("front|ABC1234||"))
	bus.Dispatch(eventbus.EventBarcodeReceived, eventbus.NewString("TK-0091"))
	bus.Dispatch(eventbus.EventPayResult, eventbus.NewString("T100"))
	bus.Dispatch(eventbus.EventTnGCardNumResult, eventbus.NewString("6013987654321"))

	assert.Equal(t, []string{"front|ABC1234||"}, ctrl.plates)
	assert.Equal(t, []string{"TK-0091"}, ctrl.barcode)
	assert.Equal(t, []string{"T100"}, ctrl.orders)
	assert.Equal(t, []string{"6013987654321"}, ctrl.cards)
}

func TestPayloadMismatchIsRecoverable(t *testing.T) {
	bus, ctrl := newWiredBus(t)

	// A string payload on a DIO event is a handler-level error, never a
	// dispatcher fault.
	assert.NotPanics(t, func() {
		bus.Dispatch(eventbus.EventLoopOn, eventbus.NewString("oops"))
	})
	assert.Empty(t, ctrl.dio)
	assert.Equal(t, int64(1), bus.GetStats().Faults)

	// The bus keeps working.
	bus.Dispatch(eventbus.EventLoopOn, eventbus.NewInt(1))
	assert.Equal(t, []string{"loop:on"}, ctrl.dio)
}
