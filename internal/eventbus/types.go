package eventbus

import "fmt"

// Kind tags the payload variant carried by an event. The set is closed:
// every producer in the agent emits one of these three shapes.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Payload is an immutable tagged value. Accessors return an error on a
// kind mismatch instead of panicking; a mismatch is a recoverable
// handler-level condition, never a dispatcher fault.
type Payload struct {
	kind Kind
	i    int
	b    bool
	s    string
}

func NewInt(v int) Payload       { return Payload{kind: KindInt, i: v} }
func NewBool(v bool) Payload     { return Payload{kind: KindBool, b: v} }
func NewString(v string) Payload { return Payload{kind: KindString, s: v} }

func (p Payload) Kind() Kind { return p.kind }

func (p Payload) Int() (int, error) {
	if p.kind != KindInt {
		return 0, fmt.Errorf("payload kind mismatch: want int, got %s", p.kind)
	}
	return p.i, nil
}

func (p Payload) Bool() (bool, error) {
	if p.kind != KindBool {
		return false, fmt.Errorf("payload kind mismatch: want bool, got %s", p.kind)
	}
	return p.b, nil
}

func (p Payload) Str() (string, error) {
	if p.kind != KindString {
		return "", fmt.Errorf("payload kind mismatch: want string, got %s", p.kind)
	}
	return p.s, nil
}

// Event is one named notification. Events are created by the producing
// component and consumed exactly once by the matching handler.
type Event struct {
	Name    string
	Payload Payload
}

// Handler consumes one event. It runs synchronously on the goroutine
// that dispatched the event and must not block.
type Handler func(Event) error
