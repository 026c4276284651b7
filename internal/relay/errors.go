package relay

import "fmt"

// Class buckets relay failures by how the caller should treat them
type Class int

const (
	// ClassBadRequest marks malformed caller input. Never retried.
	ClassBadRequest Class = iota

	// ClassNotFound marks an unknown session token
	ClassNotFound

	// ClassDeliveryFailed marks a downstream Telegram send failure
	ClassDeliveryFailed
)

// Error is a classified relay failure. Reason is the stable wire-level
// error string; Detail carries the underlying cause when there is one.
type Error struct {
	Class  Class
	Reason string
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
	}
	return e.Reason
}

func badRequest(reason string) *Error {
	return &Error{Class: ClassBadRequest, Reason: reason}
}

func badRequestDetail(reason string, err error) *Error {
	return &Error{Class: ClassBadRequest, Reason: reason, Detail: err.Error()}
}

func notFound(reason string) *Error {
	return &Error{Class: ClassNotFound, Reason: reason}
}

func deliveryFailed(reason string, err error) *Error {
	return &Error{Class: ClassDeliveryFailed, Reason: reason, Detail: err.Error()}
}
