// Package keyspace derives the Redis key names belonging to a collection
// and to a list within it, and validates the names that feed them.
//
// For a fixed namespace prefix P, collection name N, and list id L:
//
//	Q(N)   = P:Q:N      (queue index: sorted set, member=list id, score=oldest time)
//	S(N)   = P:S:N      (status record: hash)
//	D(N,L) = P:D:N:L    (per-list data map: hash)
//	T(N,L) = P:T:N:L    (per-list time index: sorted set)
//
// N and L must never contain ':' — this keeps glob enumeration of a
// collection's list keys (P:D:N:*) unambiguous.
package keyspace

import (
	"fmt"
	"strings"
)

// KeySpace derives key names under a single namespace prefix.
type KeySpace struct {
	Prefix string
}

// New returns a KeySpace rooted at prefix. An empty prefix is valid (keys
// are then rooted at the bare P:S:N form with an empty first segment).
func New(prefix string) KeySpace {
	return KeySpace{Prefix: prefix}
}

// Status returns S(N).
func (ks KeySpace) Status(n string) string {
	return ks.Prefix + ":S:" + n
}

// Queue returns Q(N).
func (ks KeySpace) Queue(n string) string {
	return ks.Prefix + ":Q:" + n
}

// Data returns D(N,L).
func (ks KeySpace) Data(n, l string) string {
	return ks.Prefix + ":D:" + n + ":" + l
}

// Time returns T(N,L).
func (ks KeySpace) Time(n, l string) string {
	return ks.Prefix + ":T:" + n + ":" + l
}

// DataGlob returns the glob pattern matching every D(N,*) key, used by
// drop_collection/clear_collection to enumerate a collection's lists.
func (ks KeySpace) DataGlob(n string) string {
	return ks.Prefix + ":D:" + n + ":*"
}

// TimeGlob returns the glob pattern matching every T(N,*) key.
func (ks KeySpace) TimeGlob(n string) string {
	return ks.Prefix + ":T:" + n + ":*"
}

// ValidateName reports an error if s is empty or contains ':'.
func ValidateName(field, s string) error {
	if s == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if strings.Contains(s, ":") {
		return fmt.Errorf("%s must not contain ':': %q", field, s)
	}
	return nil
}

// ListIDFromDataKey extracts L from a D(N,*) key returned by glob
// enumeration, given the known N.
func (ks KeySpace) ListIDFromDataKey(n, key string) string {
	prefix := ks.Prefix + ":D:" + n + ":"
	return strings.TrimPrefix(key, prefix)
}

// ListIDFromTimeKey extracts L from a T(N,*) key returned by glob
// enumeration, given the known N.
func (ks KeySpace) ListIDFromTimeKey(n, key string) string {
	prefix := ks.Prefix + ":T:" + n + ":"
	return strings.TrimPrefix(key, prefix)
}
