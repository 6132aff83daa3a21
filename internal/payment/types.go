package payment

// Wire types of the Touch-n-Go backend contract. Field names and their
// inconsistent casing are fixed by that contract; do not "fix" them.

// PayRequest is the outbound body of POST /w4g/PayRequest.
type PayRequest struct {
	PayAmount      int    `json:"payAmount"`
	DiscountAmount int    `json:"DiscountAmount"`
	EnterTime      string `json:"EnterTime"`
	PayTime        string `json:"PayTime"`
	OrderID        string `json:"OrderId"`
}

// PayCancel is the outbound body of POST /w4g/PayCancel.
type PayCancel struct {
	OrderID string `json:"OrderId"`
}

// ReaderCtrl is the outbound body of POST /w4g/ReaderCtrl.
type ReaderCtrl struct {
	Enable  bool   `json:"Enable"`
	OrderID string `json:"OrderId"`
}

// PayResultAck acknowledges an inbound POST /w4g/PayResult.
type PayResultAck struct {
	State   int    `json:"State"`
	OrderID string `json:"OrderId"`
}

// CardNoAck acknowledges an inbound POST /w4g/CardNoUpl.
type CardNoAck struct {
	State  int    `json:"State"`
	CardNo string `json:"CardNo"`
}

// TimeLayout is the timestamp format of EnterTime / PayTime.
const TimeLayout = "2006-01-02 15:04:05"

// Routes of the inbound callback server.
const (
	RoutePayResult = "/w4g/PayResult"
	RouteCardNoUpl = "/w4g/CardNoUpl"
)

// Targets of the outbound backend calls.
const (
	TargetPayRequest = "/w4g/PayRequest"
	TargetPayCancel  = "/w4g/PayCancel"
	TargetReaderCtrl = "/w4g/ReaderCtrl"
)
