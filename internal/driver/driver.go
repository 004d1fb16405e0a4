// Package driver is the ClientDriver (spec §2): it owns the Redis
// connection, the per-Driver script-digest cache, and translation
// between the TxScripts' wire replies and the errs.Kind taxonomy.
// Every atomic operation goes through Dispatch, which always sends a
// fully self-contained script (internal/scripts) so a cold cache costs
// one SCRIPT LOAD, never a correctness gap.
package driver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trackingsoft/go-cappedcollection/internal/errs"
	"github.com/trackingsoft/go-cappedcollection/internal/scripts"
)

// Driver dispatches TxScripts against a Redis connection. A Driver is
// safe for concurrent use; the digest cache is private to this instance,
// matching spec §4.12's requirement that digest caching be scoped to the
// connection, not held as package-global state.
type Driver struct {
	rdb *redis.Client
	log zerolog.Logger

	mu      sync.RWMutex
	digests map[scripts.Op]string // op -> sha1 digest, once confirmed loaded
}

// New wraps an existing go-redis client. Driver does not own the
// connection's lifecycle; callers close rdb themselves.
func New(rdb *redis.Client, log zerolog.Logger) *Driver {
	return &Driver{
		rdb:     rdb,
		log:     log.With().Str("component", "driver").Logger(),
		digests: make(map[scripts.Op]string),
	}
}

// Preload registers every known script's digest with Redis up front, so
// the first real Dispatch of each op never pays a SCRIPT LOAD round
// trip. It is best-effort: a failure here is not fatal, since Dispatch
// loads on demand anyway.
func (d *Driver) Preload(ctx context.Context) error {
	for _, op := range scripts.All() {
		if _, err := d.load(ctx, op); err != nil {
			return fmt.Errorf("preload %s: %w", op, err)
		}
	}
	return nil
}

// Dispatch runs op against keys/argv and returns the script's payload
// (the reply array's elements after the leading status code) on success.
// On a classified failure it returns an *errs.Error whose Kind was read
// off the wire status code (for a script-level failure) or derived from
// the transport error (for a connection-level failure).
func (d *Driver) Dispatch(ctx context.Context, op scripts.Op, keys []string, argv ...any) ([]any, error) {
	reply, err := d.eval(ctx, op, keys, argv...)
	if err != nil && isRetryableTransport(err) {
		d.log.Warn().Err(err).Str("op", string(op)).Msg("retrying dispatch after transport error")
		reply, err = d.eval(ctx, op, keys, argv...)
	}
	if err != nil {
		kind := classifyTransport(err)
		if kind == errs.KindMaxMemoryLimit {
			d.forget(op)
		}
		return nil, errs.New(string(op), kind, "backing store request failed", err)
	}

	arr, ok := reply.([]any)
	if !ok || len(arr) == 0 {
		return nil, errs.New(string(op), errs.KindBackingStore, "malformed script reply", nil)
	}

	code, err := toInt64(arr[0])
	if err != nil {
		return nil, errs.New(string(op), errs.KindBackingStore, "malformed status code in script reply", err)
	}
	if code != wireSuccess {
		msg := ""
		if len(arr) > 1 {
			if s, ok := arr[1].(string); ok {
				msg = s
			}
		}
		return nil, errs.New(string(op), codeToKind(code), msg, nil)
	}
	return arr[1:], nil
}

// eval sends op via EVALSHA when its digest is known-loaded, falling
// back to SCRIPT LOAD + EVALSHA on a cold cache or a NOSCRIPT reply (the
// script was evicted from the server, e.g. after a FLUSHALL or restart).
func (d *Driver) eval(ctx context.Context, op scripts.Op, keys []string, argv ...any) (any, error) {
	src, ok := scripts.Source(op)
	if !ok {
		return nil, fmt.Errorf("driver: unknown op %q", op)
	}

	digest, loaded := d.digestFor(op)
	if !loaded {
		var err error
		digest, err = d.load(ctx, op)
		if err != nil {
			return nil, err
		}
	}

	reply, err := d.rdb.EvalSha(ctx, digest, keys, argv...).Result()
	if err == nil {
		return reply, nil
	}
	if !isNoScript(err) {
		return nil, err
	}

	d.forget(op)
	digest, loadErr := d.loadSource(ctx, op, src)
	if loadErr != nil {
		return nil, loadErr
	}
	return d.rdb.EvalSha(ctx, digest, keys, argv...).Result()
}

func (d *Driver) load(ctx context.Context, op scripts.Op) (string, error) {
	src, ok := scripts.Source(op)
	if !ok {
		return "", fmt.Errorf("driver: unknown op %q", op)
	}
	return d.loadSource(ctx, op, src)
}

func (d *Driver) loadSource(ctx context.Context, op scripts.Op, src string) (string, error) {
	digest, err := d.rdb.ScriptLoad(ctx, src).Result()
	if err != nil {
		return "", fmt.Errorf("script load %s: %w", op, err)
	}
	if want := sha1Digest(src); digest != want {
		d.log.Warn().Str("op", string(op)).Str("server_digest", digest).Str("local_digest", want).
			Msg("server-reported script digest does not match local computation")
	}
	d.remember(op, digest)
	return digest, nil
}

func (d *Driver) digestFor(op scripts.Op) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	digest, ok := d.digests[op]
	return digest, ok
}

func (d *Driver) remember(op scripts.Op, digest string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.digests[op] = digest
}

func (d *Driver) forget(op scripts.Op) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.digests, op)
}

func sha1Digest(src string) string {
	sum := sha1.Sum([]byte(src))
	return hex.EncodeToString(sum[:])
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("driver: unexpected status code type %T", v)
	}
}
