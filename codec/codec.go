// Package codec provides the serialization formats a Message can travel in.
//
// Every codec implements gRPC's encoding.Codec and is registered with gRPC's
// encoding registry on import, keyed by its content-subtype. A client selects
// one per call with grpc.CallContentSubtype(name); a server accepts all of them.
package codec

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Content-subtype names, as sent in "application/grpc+<name>".
const (
	NameJSON   = "json"
	NameBinary = "binary"
)

// Codec is the serialization contract shared with gRPC.
type Codec = encoding.Codec

func init() {
	encoding.RegisterCodec(&JSONCodec{})
	encoding.RegisterCodec(&BinaryCodec{})
}

// Get returns the codec registered under name.
func Get(name string) (Codec, error) {
	switch name {
	case NameJSON:
		return &JSONCodec{}, nil
	case NameBinary:
		return &BinaryCodec{}, nil
	}
	return nil, fmt.Errorf("codec: unknown codec %q", name)
}
