package authflow

import (
	"io"

	internalaudit "github.com/halcyonlabs/authflow/internal/audit"
)

// AuditEvent defines a public type used by authflow APIs.
//
// AuditEvent instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditEvent = internalaudit.Event

// AuditSink defines a public type used by authflow APIs.
//
// AuditSink instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditSink = internalaudit.Sink

// NoOpSink defines a public type used by authflow APIs.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink defines a public type used by authflow APIs.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink defines a public type used by authflow APIs.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
