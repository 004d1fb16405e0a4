// Package errs defines the error taxonomy shared by every layer of the
// capped-collection engine: the Lua scripts classify their own failures
// into these kinds, the driver classifies Redis/network failures into
// them, and the public Collection surfaces them unchanged to callers.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure. Callers branch on Kind, not
// on the wrapped message, since message text is not part of the contract.
type Kind int

const (
	// KindUnknown is the catch-all for replies the driver cannot classify.
	KindUnknown Kind = iota
	KindArgument
	KindDataTooLarge
	KindNetwork
	KindMaxMemoryLimit
	KindMaxMemoryPolicy
	KindCollectionDeleted
	KindBackingStore
	KindDataIDExists
	KindOlderThanAllowed
	KindNonExistentDataID
	KindIncompatibleDataVersion
	KindNoReply
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "argument"
	case KindDataTooLarge:
		return "data-too-large"
	case KindNetwork:
		return "network"
	case KindMaxMemoryLimit:
		return "max-memory-limit"
	case KindMaxMemoryPolicy:
		return "max-memory-policy"
	case KindCollectionDeleted:
		return "collection-deleted"
	case KindBackingStore:
		return "backing-store"
	case KindDataIDExists:
		return "data-id-exists"
	case KindOlderThanAllowed:
		return "older-than-allowed"
	case KindNonExistentDataID:
		return "non-existent-data-id"
	case KindIncompatibleDataVersion:
		return "incompatible-data-version"
	case KindNoReply:
		return "no-reply"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every public operation.
// Op names the operation that failed (e.g. "insert"), Message carries a
// human-readable detail, and Err optionally wraps the underlying cause
// (a go-redis error, a classification failure, etc.).
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cappedcollection: %s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("cappedcollection: %s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for op with the given kind, message and optional
// wrapped cause. Kind is not itself an error, so callers inspect it via
// errors.As or the KindOf helper below.
func New(op string, kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// returning KindUnknown otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is a capped-collection Error of the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
