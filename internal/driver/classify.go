package driver

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/trackingsoft/go-cappedcollection/internal/errs"
)

// classifyTransport turns a transport-level failure (an error from the
// go-redis client itself, not a script reply) into a Kind. It never
// inspects wire reply codes — those come from codeToKind instead.
func classifyTransport(err error) errs.Kind {
	if err == nil {
		return errs.KindUnknown
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errs.KindNetwork
	case errors.Is(err, redis.Nil):
		return errs.KindNoReply
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.KindNetwork
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NOSCRIPT"):
		return errs.KindBackingStore
	case strings.Contains(msg, "OOM"):
		return errs.KindMaxMemoryLimit
	case strings.Contains(msg, "MISCONF"):
		return errs.KindMaxMemoryPolicy
	case strings.Contains(msg, "connect"), strings.Contains(msg, "EOF"),
		strings.Contains(msg, "broken pipe"), strings.Contains(msg, "reset by peer"):
		return errs.KindNetwork
	default:
		return errs.KindBackingStore
	}
}

// isNoScript reports whether err is the NOSCRIPT reply that means the
// digest we sent is not (or no longer) loaded on the server.
func isNoScript(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOSCRIPT")
}

// isRetryableTransport reports whether err is worth one reconnect-and-
// retry pass. Argument and policy errors are never retried: they will
// fail the same way again.
func isRetryableTransport(err error) bool {
	switch classifyTransport(err) {
	case errs.KindNetwork, errs.KindNoReply:
		return true
	default:
		return false
	}
}
