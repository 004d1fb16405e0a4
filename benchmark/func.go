// Package benchmark measures the cost of capped-collection operations
// against a miniredis instance: insert/receive under a cold cache (new
// ids every iteration, forcing a fresh list each time), a warm cache
// (the same id repeatedly), and concurrent access.
package benchmark

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	cappedcollection "github.com/trackingsoft/go-cappedcollection"
)

func newBenchCollection(b *testing.B) *cappedcollection.Collection {
	b.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("starting miniredis: %v", err)
	}
	b.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b.Cleanup(func() { _ = rdb.Close() })

	cfg := cappedcollection.NewConfig(cappedcollection.WithPrefix("bench"))
	c, err := cappedcollection.Open(context.Background(), rdb, "c", cfg)
	if err != nil {
		b.Fatalf("opening collection: %v", err)
	}
	return c
}
