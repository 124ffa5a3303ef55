package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/hKV/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is implemented by every value that travels over the wire:
// *CommandRequest and *CommandResponse.
type Message interface {
	isMessage()
}

// CommandRequest is a single command sent by a client.
// Which fields are used depends on the type of message.
type CommandRequest struct {
	// Type of message
	MsgType MessageType `json:"msg_type" msgpack:"msg_type"`

	Table string        `json:"table" msgpack:"table"`                   // Used for: all commands
	Key   string        `json:"key,omitempty" msgpack:"key,omitempty"`   // Used for: Hget, Hexist, Hdel
	Pair  *store.Kvpair `json:"pair,omitempty" msgpack:"pair,omitempty"` // Used for: Hset
}

// CommandResponse is the answer to exactly one CommandRequest.
// Status uses the HTTP numbering, Message is empty on success.
type CommandResponse struct {
	Status  uint32         `json:"status" msgpack:"status"`
	Message string         `json:"message,omitempty" msgpack:"message,omitempty"`
	Values  []store.Value  `json:"values,omitempty" msgpack:"values,omitempty"` // Used for: Hget, Hset, Hexist, Hdel
	Pairs   []store.Kvpair `json:"pairs,omitempty" msgpack:"pairs,omitempty"`   // Used for: Hgetall
}

func (*CommandRequest) isMessage()  {}
func (*CommandResponse) isMessage() {}

// IsSuccess reports whether the response carries a 2xx status
func (r *CommandResponse) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewHsetRequest creates a new Hset request
func NewHsetRequest(table, key string, value store.Value) *CommandRequest {
	pair := store.NewKvpair(key, value)
	return &CommandRequest{
		MsgType: MsgTHset,
		Table:   table,
		Pair:    &pair,
	}
}

// NewHgetRequest creates a new Hget request
func NewHgetRequest(table, key string) *CommandRequest {
	return &CommandRequest{
		MsgType: MsgTHget,
		Table:   table,
		Key:     key,
	}
}

// NewHgetallRequest creates a new Hgetall request
func NewHgetallRequest(table string) *CommandRequest {
	return &CommandRequest{
		MsgType: MsgTHgetall,
		Table:   table,
	}
}

// NewHexistRequest creates a new Hexist request
func NewHexistRequest(table, key string) *CommandRequest {
	return &CommandRequest{
		MsgType: MsgTHexist,
		Table:   table,
		Key:     key,
	}
}

// NewHdelRequest creates a new Hdel request
func NewHdelRequest(table, key string) *CommandRequest {
	return &CommandRequest{
		MsgType: MsgTHdel,
		Table:   table,
		Key:     key,
	}
}

// --------------------------------------------------------------------------
// Message Type
// --------------------------------------------------------------------------

type MessageType uint32

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota // Unset, always rejected

	MsgTHset    // Set the value of a key in a table
	MsgTHget    // Get the value of a key in a table
	MsgTHgetall // Get all pairs of a table
	MsgTHexist  // Check if a key exists in a table
	MsgTHdel    // Delete a key from a table
)

// String returns the string representation of the message type
func (t MessageType) String() string {
	switch t {
	case MsgTHset:
		return "hset"
	case MsgTHget:
		return "hget"
	case MsgTHgetall:
		return "hgetall"
	case MsgTHexist:
		return "hexist"
	case MsgTHdel:
		return "hdel"
	default:
		return "unknown"
	}
}

// ParseMessageType converts the name of a command into its message type
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case "hset":
		return MsgTHset, nil
	case "hget":
		return MsgTHget, nil
	case "hgetall":
		return MsgTHgetall, nil
	case "hexist":
		return MsgTHexist, nil
	case "hdel":
		return MsgTHdel, nil
	default:
		return MsgTUnknown, fmt.Errorf("unknown message type: %s", s)
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// Unknown names decode to MsgTUnknown so that the dispatcher can reject them.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMessageType(s)
	if err != nil {
		*t = MsgTUnknown
		return nil
	}
	*t = parsed
	return nil
}
