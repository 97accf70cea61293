package consumer

import (
	"errors"

	"kafkabridge/client"
)

var (
	// ErrNoBrokers reports that the broker list contained no usable address.
	ErrNoBrokers = client.ErrNoBrokers

	// ErrInvalidHandle reports a nil or already-released message handle.
	// Passing one is a programming error, not a transient failure.
	ErrInvalidHandle = errors.New("invalid message handle: nil or already released")

	// ErrClosed reports an operation on a closed consumer.
	ErrClosed = errors.New("consumer is closed")
)

// ConfigError reports invalid configuration, detected before any native
// resource is allocated.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "consumer config: " + e.Reason }

// NativeInitError reports that native client construction failed; Detail
// carries the client library's diagnostic.
type NativeInitError struct {
	Detail error
}

func (e *NativeInitError) Error() string { return "creating native consumer: " + e.Detail.Error() }
func (e *NativeInitError) Unwrap() error { return e.Detail }

// SubscribeError reports that the native client rejected a subscription.
type SubscribeError struct {
	Detail error
}

func (e *SubscribeError) Error() string { return "subscribe: " + e.Detail.Error() }
func (e *SubscribeError) Unwrap() error { return e.Detail }

// OffsetStoreError reports a failed offset store.
type OffsetStoreError struct {
	Detail error
}

func (e *OffsetStoreError) Error() string { return "store offset: " + e.Detail.Error() }
func (e *OffsetStoreError) Unwrap() error { return e.Detail }

// CloseError reports a failure while tearing down the native client.
// Teardown still completes; the handle is unusable afterwards either way.
type CloseError struct {
	Detail error
}

func (e *CloseError) Error() string { return "closing consumer: " + e.Detail.Error() }
func (e *CloseError) Unwrap() error { return e.Detail }
