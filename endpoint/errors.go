package endpoint

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches, via errors.Is, every Send on an Endpoint that never
// connected.
var ErrUnavailable = errors.New("endpoint: no client")

// UnavailableError is returned by Send when the Endpoint is disconnected.
// Cause is the connect failure recorded at construction. It is reported in
// Error but not unwrapped: ErrUnavailable is the only error this matches.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return ErrUnavailable.Error()
	}
	return fmt.Sprintf("%s (connect failed: %v)", ErrUnavailable, e.Cause)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// TransportError is any failure that originated below the Endpoint: refused or
// reset connections, peer status errors, codec faults. Err is the original error
// and remains reachable through errors.As / status.FromError.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "endpoint: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
