// Package sink defines the destination that exported batches are handed to.
//
// Delivery, ordering and retry policy belong to the Sink implementation.
// The exporter treats any Send error as terminal.
package sink

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies the payload type of a Send.
type Kind uint8

const (
	// KindBlob is one compressed batch of records.
	KindBlob Kind = iota + 1
)

func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ErrUnsupportedKind is returned by sinks for payload kinds they do not store.
var ErrUnsupportedKind = errors.New("sink: unsupported kind")

// Sink accepts exported payloads. Send must not retain data after it
// returns.
type Sink interface {
	Send(ctx context.Context, kind Kind, data []byte) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, kind Kind, data []byte) error

// Send calls f.
func (f Func) Send(ctx context.Context, kind Kind, data []byte) error {
	return f(ctx, kind, data)
}

// Check returns ErrUnsupportedKind unless kind is KindBlob.
func Check(kind Kind) error {
	if kind != KindBlob {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	return nil
}
