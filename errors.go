package cappedcollection

import "github.com/trackingsoft/go-cappedcollection/internal/errs"

// Kind identifies the category of a failure (spec §7). Callers branch on
// Kind, not on the wrapped message.
type Kind = errs.Kind

// Error is the concrete error type every operation returns on failure.
type Error = errs.Error

const (
	KindUnknown                 = errs.KindUnknown
	KindArgument                = errs.KindArgument
	KindDataTooLarge            = errs.KindDataTooLarge
	KindNetwork                 = errs.KindNetwork
	KindMaxMemoryLimit          = errs.KindMaxMemoryLimit
	KindMaxMemoryPolicy         = errs.KindMaxMemoryPolicy
	KindCollectionDeleted       = errs.KindCollectionDeleted
	KindBackingStore            = errs.KindBackingStore
	KindDataIDExists            = errs.KindDataIDExists
	KindOlderThanAllowed        = errs.KindOlderThanAllowed
	KindNonExistentDataID       = errs.KindNonExistentDataID
	KindIncompatibleDataVersion = errs.KindIncompatibleDataVersion
	KindNoReply                 = errs.KindNoReply
)

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// returning KindUnknown otherwise.
func KindOf(err error) Kind { return errs.KindOf(err) }

// Is reports whether err is a capped-collection Error of the given Kind.
func Is(err error, kind Kind) bool { return errs.Is(err, kind) }
