package driver

import "github.com/trackingsoft/go-cappedcollection/internal/errs"

// Wire status codes used in every script reply's first element. 0 always
// means success; any other value is errs.Kind+1 (never 0, so it can
// never collide with success). Kept in sync by hand with the CODE_*
// locals in internal/scripts/preamble.go.
const wireSuccess = 0

func codeToKind(code int64) errs.Kind {
	if code == wireSuccess {
		return errs.KindUnknown // caller never asks for a Kind on success
	}
	k := errs.Kind(code - 1)
	if k < errs.KindUnknown || k > errs.KindNoReply {
		return errs.KindUnknown
	}
	return k
}

func kindToCode(k errs.Kind) int64 {
	return int64(k) + 1
}
