// Package memprobe reads Redis's own memory accounting for diagnostic
// surfaces outside the atomic scripts (Ping, RedisConfigOK) and for
// Open's maxmemory and maxmemory-policy checks. The
// eviction-critical memory probe used by the Evictor lives inside the Lua
// preamble (internal/scripts) so its reads stay inside the same atomic
// context as the mutation they gate; this package never drives eviction
// decisions itself.
package memprobe

import (
	"context"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Probe reads used-memory, the configured ceiling, and the eviction
// policy from a live Redis connection.
type Probe struct {
	rdb *redis.Client
}

// New wraps an existing go-redis client. Probe does not own the
// connection's lifecycle.
func New(rdb *redis.Client) *Probe {
	return &Probe{rdb: rdb}
}

// Used returns the server's current used_memory in bytes, parsed out of
// the INFO memory section.
func (p *Probe) Used(ctx context.Context) (uint64, error) {
	info, err := p.rdb.Info(ctx, "memory").Result()
	if err != nil {
		return 0, err
	}
	return parseInfoUint(info, "used_memory"), nil
}

// Ceiling returns the configured maxmemory in bytes (0 means unbounded).
func (p *Probe) Ceiling(ctx context.Context) (uint64, error) {
	vals, err := p.rdb.ConfigGet(ctx, "maxmemory").Result()
	if err != nil {
		return 0, err
	}
	return parseConfigUint(vals, "maxmemory"), nil
}

// Policy returns the configured maxmemory-policy.
func (p *Probe) Policy(ctx context.Context) (string, error) {
	vals, err := p.rdb.ConfigGet(ctx, "maxmemory-policy").Result()
	if err != nil {
		return "", err
	}
	return vals["maxmemory-policy"], nil
}

// ReserveCoef returns 1+reserve when ceiling > 0, else 0 ("no pressure"),
// matching spec §4.2's effective coefficient.
func ReserveCoef(ceiling uint64, reserve float64) float64 {
	if ceiling == 0 {
		return 0
	}
	return 1 + reserve
}

// Tight reports whether used*coef >= ceiling, with coef != 0 required for
// the predicate to ever fire (coef == 0 means "no pressure" by
// definition).
func Tight(used, ceiling uint64, coef float64) bool {
	if coef == 0 {
		return false
	}
	return float64(used)*coef >= float64(ceiling)
}

func parseInfoUint(info, field string) uint64 {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, field+":"); ok {
			n, _ := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			return n
		}
	}
	return 0
}

func parseConfigUint(vals map[string]string, field string) uint64 {
	n, _ := strconv.ParseUint(vals[field], 10, 64)
	return n
}
