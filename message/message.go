// Package message defines the single message type exchanged between endpoints.
//
// Message is the "envelope" for every call in both directions. It gets serialized
// by one of the codecs in package codec and carried as the body of a gRPC unary call.
package message

// Message carries one payload plus auxiliary fields reserved for extension.
//
//   - Data is the payload. It is the only field the endpoint core reads or writes.
//   - Every other field is optional and defaults to its zero value.
type Message struct {
	Data           string `json:"data"`
	Sender         string `json:"sender,omitempty"`    // Node id of the originator
	Recipient      string `json:"recipient,omitempty"` // Node id of the intended receiver
	Timestamp      int64  `json:"timestamp,omitempty"` // Unix milliseconds, set by the sender
	Sync           bool   `json:"sync,omitempty"`
	Sequence       uint32 `json:"sequence,omitempty"`
	RedundancyPath string `json:"redundancy_path,omitempty"`
	GroupID        string `json:"group_id,omitempty"`
}

// New returns a Message with the given payload and all other fields zero.
func New(data string) *Message {
	return &Message{Data: data}
}

// GetData returns the payload, or "" for a nil message.
func (m *Message) GetData() string {
	if m == nil {
		return ""
	}
	return m.Data
}

// GetSender returns the sender node id, or "" for a nil message.
func (m *Message) GetSender() string {
	if m == nil {
		return ""
	}
	return m.Sender
}
