package eventbus

// Event names consumed by the control logic. The registry is built from
// these once at startup; producers never invent names at runtime.
const (
	// DIO transition events. Payload: int, the raw DIO signal code.
	EventLoopOn                = "LoopOn"
	EventLoopOff               = "LoopOff"
	EventIntercomOn            = "IntercomOn"
	EventIntercomOff           = "IntercomOff"
	EventDoorOn                = "DoorOn"
	EventDoorOff               = "DoorOff"
	EventBarrierOn             = "BarrierOn"
	EventBarrierOff            = "BarrierOff"
	EventArmOn                 = "ArmOn"
	EventArmOff                = "ArmOff"
	EventLorrySensorOn         = "LorrySensorOn"
	EventLorrySensorOff        = "LorrySensorOff"
	EventBarrierOpenTooLongOn  = "BarrierOpenTooLongOn"
	EventBarrierOpenTooLongOff = "BarrierOpenTooLongOff"

	// Camera and scanner events. Payload: string, the serialized record.
	EventLprReceived     = "LprReceived"
	EventBarcodeReceived = "BarcodeReceived"

	// Touch-n-Go requests published by the control logic for the payment
	// adapter. Payloads: string (serialized pay request JSON), string
	// (order id), bool (reader enable).
	EventTnGPayRequest = "TnGPayRequest"
	EventTnGPayCancel  = "TnGPayCancel"
	EventTnGReaderCtrl = "TnGReaderCtrl"

	// Touch-n-Go results published by the payment adapter. Payload:
	// string (order id / card number).
	EventPayResult        = "PayResult"
	EventTnGCardNumResult = "TnGCardNumResult"
)
