package benchmark

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trackingsoft/go-cappedcollection/internal/driver"
	"github.com/trackingsoft/go-cappedcollection/internal/scripts"
)

// BenchmarkInsertDirect dispatches the insert script straight through
// Driver, bypassing Collection's argument validation and hook dispatch,
// to isolate the cost of the Lua round trip itself.
func BenchmarkInsertDirect(b *testing.B) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("starting miniredis: %v", err)
	}
	b.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b.Cleanup(func() { _ = rdb.Close() })

	d := driver.New(rdb, zerolog.Nop())
	ctx := context.Background()
	if err := d.Preload(ctx); err != nil {
		b.Fatalf("preload: %v", err)
	}
	// insert requires the status record, which verify_collection creates.
	if _, err := d.Dispatch(ctx, scripts.OpVerifyCollection, nil, "bench", "c", 1, 0, 0, 0.05, 1); err != nil {
		b.Fatalf("verify_collection: %v", err)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l := strconv.Itoa(i)
		_, err := d.Dispatch(ctx, scripts.OpInsert, nil, "bench", "c", l, "d", []byte("payload"), float64(i+1), "bench")
		if err != nil {
			b.Fatalf("dispatch: %v", err)
		}
	}
}
