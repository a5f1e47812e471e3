package log

import "time"

// Event is a protocol capture record. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates line flow relative to the local side.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// LocalRole is the side that recorded the event.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer endpoint.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// DeviceID is the numeric device id of the handle, formatted as hex.
	DeviceID string `cbor:"8,keyasint,omitempty"`

	Line        *LineEvent        `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Lifecycle
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Any layer
}

// Direction of a line.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which part of the stack captured the event.
type Layer uint8

const (
	// LayerTransport is the line layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the JSON message layer.
	LayerWire Layer = 1
	// LayerDevice is the device handle / descriptor layer.
	LayerDevice Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	CategoryMessage Category = 0
	// CategoryControl covers the farewell notice.
	CategoryControl Category = 1
	CategoryState   Category = 2
	CategoryError   Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role of the recording side.
type Role uint8

const (
	RoleHarness   Role = 0
	RoleSimulator Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleHarness:
		return "HARNESS"
	case RoleSimulator:
		return "SIMULATOR"
	default:
		return "UNKNOWN"
	}
}

// LineEvent captures a raw line at the transport layer.
type LineEvent struct {
	// Size is the line length in bytes, terminator excluded.
	Size int `cbor:"1,keyasint"`

	// Data is the line content (may be truncated for long lines).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates Data was cut at MaxLineCapture bytes.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MaxLineCapture bounds the bytes kept per LineEvent.
const MaxLineCapture = 4096

// NewLineEvent builds a LineEvent, truncating long lines.
func NewLineEvent(line []byte) *LineEvent {
	ev := &LineEvent{Size: len(line)}
	if len(line) > MaxLineCapture {
		line = line[:MaxLineCapture]
		ev.Truncated = true
	}
	ev.Data = append([]byte(nil), line...)
	return ev
}

// MessageEvent captures a decoded request or response.
type MessageEvent struct {
	Type MessageType `cbor:"1,keyasint"`

	// CmdID is set for requests.
	CmdID *uint64 `cbor:"2,keyasint,omitempty"`

	// Command is the descriptor name (e.g. "set_active_bus"), if known.
	Command string `cbor:"3,keyasint,omitempty"`

	// TypeTag is the response type tag.
	TypeTag string `cbor:"4,keyasint,omitempty"`

	// Payload is a CBOR-compatible rendering of args/kwargs or data.
	Payload any `cbor:"5,keyasint,omitempty"`

	// Degraded marks a response that materializes to its raw envelope:
	// the tag is unknown or the data does not fit the registered shape.
	Degraded bool `cbor:"6,keyasint,omitempty"`

	// RoundTrip is the request-to-response latency (responses only).
	RoundTrip *time.Duration `cbor:"7,keyasint,omitempty"`
}

// MessageType distinguishes requests and responses.
type MessageType uint8

const (
	MessageTypeRequest  MessageType = 0
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection and handle lifecycle events.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	StateEntityConnection StateEntity = 0
	StateEntityHandle     StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityHandle:
		return "HANDLE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes what was being done, e.g. "receive line".
	Context string `cbor:"3,keyasint,omitempty"`
}
