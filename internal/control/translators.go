package control

import (
	"icc.tech/parkgate/internal/eventbus"
)

// dioEdge binds one event name to the signal and edge it represents.
type dioEdge struct {
	signal Signal
	on     bool
}

var dioEvents = map[string]dioEdge{
	eventbus.EventLoopOn:                {SignalLoop, true},
	eventbus.EventLoopOff:               {SignalLoop, false},
	eventbus.EventIntercomOn:            {SignalIntercom, true},
	eventbus.EventIntercomOff:           {SignalIntercom, false},
	eventbus.EventDoorOn:                {SignalDoor, true},
	eventbus.EventDoorOff:               {SignalDoor, false},
	eventbus.EventBarrierOn:             {SignalBarrier, true},
	eventbus.EventBarrierOff:            {SignalBarrier, false},
	eventbus.EventArmOn:                 {SignalArm, true},
	eventbus.EventArmOff:                {SignalArm, false},
	eventbus.EventLorrySensorOn:         {SignalLorrySensor, true},
	eventbus.EventLorrySensorOff:        {SignalLorrySensor, false},
	eventbus.EventBarrierOpenTooLongOn:  {SignalBarrierOpenTooLong, true},
	eventbus.EventBarrierOpenTooLongOff: {SignalBarrierOpenTooLong, false},
}

// RegisterHandlers wires every control-facing event to ctrl. Handlers
// are pure translators; payload-kind mismatches come back as errors and
// are contained by the bus. Must run before the bus is sealed.
func RegisterHandlers(bus *eventbus.Bus, ctrl Controller) error {
	for name, edge := range dioEvents {
		edge := edge
		err := bus.Subscribe(name, func(ev eventbus.Event) error {
			code, err := ev.Payload.Int()
			if err != nil {
				return err
			}
			ctrl.OnDioChanged(edge.signal, edge.on, code)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if err := bus.Subscribe(eventbus.EventLprReceived, func(ev eventbus.Event) error {
		record, err := ev.Payload.Str()
		if err != nil {
			return err
		}
		ctrl.OnPlate(record)
		return nil
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(eventbus.EventBarcodeReceived, func(ev eventbus.Event) error {
		code, err := ev.Payload.Str()
		if err != nil {
			return err
		}
		ctrl.OnBarcode(code)
		return nil
	}); err != nil {
		return err
	}

	if err := bus.Subscribe(eventbus.EventPayResult, func(ev eventbus.Event) error {
		orderID, err := ev.Payload.Str()
		if err != nil {
			return err
		}
		ctrl.OnPayResult(orderID)
		return nil
	}); err != nil {
		return err
	}

	return bus.Subscribe(eventbus.EventTnGCardNumResult, func(ev eventbus.Event) error {
		cardNo, err := ev.Payload.Str()
		if err != nil {
			return err
		}
		ctrl.OnCardNumber(cardNo)
		return nil
	})
}
