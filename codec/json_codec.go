package codec

import (
	"encoding/json"
	"errors"
	"unicode/utf8"

	"dcf/message"
)

// errInvalidUTF8 is returned instead of letting encoding/json replace invalid
// bytes with U+FFFD. Use the binary codec for payloads that are not UTF-8.
var errInvalidUTF8 = errors.New("codec: json: string field is not valid UTF-8")

// JSONCodec uses Go's standard library encoding/json for serialization.
// Human-readable and cross-language; the default for new connections.
// Every string field must be valid UTF-8.
type JSONCodec struct{}

func (c *JSONCodec) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(*message.Message); ok && !validUTF8(msg) {
		return nil, errInvalidUTF8
	}
	return json.Marshal(v)
}

func (c *JSONCodec) Unmarshal(data []byte, v any) error {
	if !utf8.Valid(data) {
		return errInvalidUTF8
	}
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Name() string {
	return NameJSON
}

func validUTF8(msg *message.Message) bool {
	for _, s := range []string{msg.Data, msg.Sender, msg.Recipient, msg.RedundancyPath, msg.GroupID} {
		if !utf8.ValidString(s) {
			return false
		}
	}
	return true
}
