package cappedcollection_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	cappedcollection "github.com/trackingsoft/go-cappedcollection"
)

func newTestCollection(t *testing.T, opts ...cappedcollection.Option) *cappedcollection.Collection {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := cappedcollection.NewConfig(append([]cappedcollection.Option{
		cappedcollection.WithPrefix("t"),
		cappedcollection.WithOlderAllowed(true),
	}, opts...)...)
	c, err := cappedcollection.Open(context.Background(), rdb, "c", cfg)
	require.NoError(t, err)
	return c
}

// S1 Basic insert/receive.
func TestBasicInsertReceive(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	l, err := c.Insert(ctx, "L1", "d1", []byte("hello"), 1.0)
	require.NoError(t, err)
	require.Equal(t, "L1", l)

	data, err := c.Receive(ctx, "L1", "d1")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	info, err := c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, info.Lists)
	require.EqualValues(t, 1, info.Items)
	require.True(t, info.HasOldestTime)
	require.InDelta(t, 1.0, info.OldestTime, 1e-9)
	require.InDelta(t, 0.0, info.LastRemovedTime, 1e-9)
}

// S2 Multi-item list.
func TestMultiItemListOrdering(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	_, err := c.Insert(ctx, "L1", "d1", []byte("a"), 1.0)
	require.NoError(t, err)
	_, err = c.Insert(ctx, "L1", "d2", []byte("b"), 3.0)
	require.NoError(t, err)
	_, err = c.Insert(ctx, "L1", "d3", []byte("c"), 2.0)
	require.NoError(t, err)

	vals, err := c.ReceiveValues(ctx, "L1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b", "c"}, bytesToStrings(vals))

	info, err := c.ListInfo(ctx, "L1")
	require.NoError(t, err)
	require.InDelta(t, 1.0, info.OldestTime, 1e-9)

	p1, err := c.PopOldest(ctx)
	require.NoError(t, err)
	require.Equal(t, "L1", p1.List)
	require.Equal(t, "a", string(p1.Data))

	p2, err := c.PopOldest(ctx)
	require.NoError(t, err)
	require.Equal(t, "c", string(p2.Data))

	p3, err := c.PopOldest(ctx)
	require.NoError(t, err)
	require.Equal(t, "b", string(p3.Data))
}

// S3 Duplicate id.
func TestDuplicateDataID(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	_, err := c.Insert(ctx, "L1", "d1", []byte("x"), 1.0)
	require.NoError(t, err)

	_, err = c.Insert(ctx, "L1", "d1", []byte("y"), 2.0)
	require.Error(t, err)
	require.Equal(t, cappedcollection.KindDataIDExists, cappedcollection.KindOf(err))

	data, err := c.Receive(ctx, "L1", "d1")
	require.NoError(t, err)
	require.Equal(t, "x", string(data))
}

// S4 Older-than-allowed.
func TestOlderThanAllowed(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, cappedcollection.WithOlderAllowed(false))

	_, err := c.Insert(ctx, "L1", "d1", []byte("x"), 5.0)
	require.NoError(t, err)

	popped, err := c.PopOldest(ctx)
	require.NoError(t, err)
	require.True(t, popped.Found)

	info, err := c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.InDelta(t, 5.0, info.LastRemovedTime, 1e-9)

	_, err = c.Insert(ctx, "L1", "d2", []byte("y"), 4.0)
	require.Error(t, err)
	require.Equal(t, cappedcollection.KindOlderThanAllowed, cappedcollection.KindOf(err))
}

// S6 Update preserves time.
func TestUpdatePreservesTime(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	_, err := c.Insert(ctx, "L1", "d1", []byte("a"), 1.0)
	require.NoError(t, err)

	updated, err := c.Update(ctx, "L1", "d1", []byte("A"), 0)
	require.NoError(t, err)
	require.True(t, updated)

	info, err := c.ListInfo(ctx, "L1")
	require.NoError(t, err)
	require.InDelta(t, 1.0, info.OldestTime, 1e-9)

	data, err := c.Receive(ctx, "L1", "d1")
	require.NoError(t, err)
	require.Equal(t, "A", string(data))
}

func TestUpdateNonExistentDataID(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	_, err := c.Update(ctx, "L1", "missing", []byte("x"), 0)
	require.Error(t, err)
	require.Equal(t, cappedcollection.KindNonExistentDataID, cappedcollection.KindOf(err))
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	_, err := c.Upsert(ctx, "L1", "d1", []byte("first"), 1.0, true)
	require.NoError(t, err)

	_, err = c.Upsert(ctx, "L1", "d1", []byte("second"), 0, false)
	require.NoError(t, err)

	data, err := c.Receive(ctx, "L1", "d1")
	require.NoError(t, err)
	require.Equal(t, "second", string(data))

	info, err := c.ListInfo(ctx, "L1")
	require.NoError(t, err)
	require.InDelta(t, 1.0, info.OldestTime, 1e-9)
}

func TestDropListAndDropCollection(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	_, err := c.Insert(ctx, "L1", "d1", []byte("x"), 1.0)
	require.NoError(t, err)

	ok, err := c.DropList(ctx, "L1")
	require.NoError(t, err)
	require.True(t, ok)

	exists, err := c.ListExists(ctx, "L1")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = c.Insert(ctx, "L2", "d1", []byte("y"), 1.0)
	require.NoError(t, err)
	n, err := c.DropCollection(ctx)
	require.NoError(t, err)
	require.Greater(t, n, int64(0))

	_, err = c.Insert(ctx, "L2", "d1", []byte("y"), 1.0)
	require.Error(t, err)
	require.Equal(t, cappedcollection.KindCollectionDeleted, cappedcollection.KindOf(err))
}

func TestClearCollectionKeepsConfig(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, cappedcollection.WithAdvanceCleanup(100, 5))

	_, err := c.Insert(ctx, "L1", "d1", []byte("x"), 1.0)
	require.NoError(t, err)

	_, err = c.ClearCollection(ctx)
	require.NoError(t, err)

	info, err := c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, info.Items)
	require.EqualValues(t, 0, info.Lists)
	require.EqualValues(t, 100, info.AdvanceCleanupBytes)
	require.EqualValues(t, 5, info.AdvanceCleanupNum)
}

func TestOpenRejectsConfigMismatch(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg1 := cappedcollection.NewConfig(cappedcollection.WithPrefix("t"), cappedcollection.WithDataVersion(1))
	_, err := cappedcollection.Open(ctx, rdb, "c", cfg1)
	require.NoError(t, err)

	cfg2 := cappedcollection.NewConfig(cappedcollection.WithPrefix("t"), cappedcollection.WithDataVersion(2))
	_, err = cappedcollection.Open(ctx, rdb, "c", cfg2)
	require.Error(t, err)
	require.Equal(t, cappedcollection.KindIncompatibleDataVersion, cappedcollection.KindOf(err))
}

// S5 Advance-cleanup drives the Evictor's clean() loop purely from
// AdvanceCleanupNum, with no memory pressure at all (miniredis always
// reports maxmemory=0, so is_tight() never fires): clean() runs on
// every insert regardless, and with AdvanceCleanupNum=1 it always
// evicts the single oldest item already stored before admitting the
// new one, capped by the items actually present (testable property
// #8).
func TestAdvanceCleanupNumEvictsOldestItem(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, cappedcollection.WithAdvanceCleanup(0, 1))

	_, err := c.Insert(ctx, "L1", "d1", []byte("aaaaaaaaaa"), 1.0)
	require.NoError(t, err)

	_, err = c.Insert(ctx, "L2", "d2", []byte("bbbbbbbbbb"), 2.0)
	require.NoError(t, err)

	info, err := c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, info.Items, "d1 must have been advance-cleaned before d2 was admitted")
	require.EqualValues(t, 1, info.Lists)
	require.EqualValues(t, 1.0, info.LastRemovedTime)

	v, err := c.Receive(ctx, "L1", "d1")
	require.NoError(t, err)
	require.Nil(t, v, "d1 was evicted, L1 is now empty")

	v, err = c.Receive(ctx, "L2", "d2")
	require.NoError(t, err)
	require.Equal(t, []byte("bbbbbbbbbb"), v)

	_, err = c.Insert(ctx, "L3", "d3", []byte("cccccccccc"), 3.0)
	require.NoError(t, err)

	info, err = c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, info.Items)
	require.EqualValues(t, 2.0, info.LastRemovedTime)

	v, err = c.Receive(ctx, "L2", "d2")
	require.NoError(t, err)
	require.Nil(t, v, "d2 was advance-cleaned in turn")

	v, err = c.Receive(ctx, "L3", "d3")
	require.NoError(t, err)
	require.Equal(t, []byte("cccccccccc"), v)
}

// Advance-cleanup by byte budget: clean() keeps evicting the globally
// oldest item while the running advance_bytes total is still under B,
// but stops as soon as items run out even if B was never fully
// reclaimed (spec §4.3 step 4).
func TestAdvanceCleanupBytesBoundsReclaim(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, cappedcollection.WithAdvanceCleanup(15, 0))

	_, err := c.Insert(ctx, "L1", "d1", []byte("0123456789"), 1.0)
	require.NoError(t, err)

	// This insert's clean() finds only one older item (d1, 10 bytes).
	// It is removed (advance_bytes 0 -> 10, still < 15) but the loop
	// then sees items == 0 and stops without reaching B.
	_, err = c.Insert(ctx, "L2", "d2", []byte("0123456789"), 2.0)
	require.NoError(t, err)

	info, err := c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, info.Items)
	require.EqualValues(t, 1.0, info.LastRemovedTime)

	v, err := c.Receive(ctx, "L1", "d1")
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = c.Receive(ctx, "L2", "d2")
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789"), v)
}

// An insert's clean() runs before the new item is written, and
// advance_cleanup_num is capped at the items already stored: with an
// empty collection and AdvanceCleanupNum=5, nothing is evicted and the
// item being admitted survives.
func TestAdvanceCleanupNeverEvictsGuardedItem(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, cappedcollection.WithAdvanceCleanup(0, 5))

	_, err := c.Insert(ctx, "L1", "only", []byte("x"), 1.0)
	require.NoError(t, err)

	info, err := c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, info.Items, "clean() had nothing stored to evict, so the item just inserted must survive")

	v, err := c.Receive(ctx, "L1", "only")
	require.NoError(t, err)
	require.Equal(t, []byte("x"), v)
}

func TestResizeChangesOnlyDifferingFields(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, cappedcollection.WithAdvanceCleanup(0, 0), cappedcollection.WithMemoryReserve(0.05))

	cfg := cappedcollection.NewConfig(
		cappedcollection.WithOlderAllowed(true),
		cappedcollection.WithAdvanceCleanup(0, 0),
		cappedcollection.WithMemoryReserve(0.2),
	)
	changed, err := c.Resize(ctx, cfg)
	require.NoError(t, err)
	require.EqualValues(t, 1, changed, "only memory_reserve differs")

	info, err := c.CollectionInfo(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.2, info.MemoryReserve, 0.0001)
	require.EqualValues(t, 0, info.AdvanceCleanupBytes)
	require.EqualValues(t, 0, info.AdvanceCleanupNum)

	changed, err = c.Resize(ctx, cfg)
	require.NoError(t, err)
	require.EqualValues(t, 0, changed, "resizing to the already-stored values changes nothing")
}

func TestResizeRejectsDataVersionMismatch(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t, cappedcollection.WithDataVersion(1))

	cfg := cappedcollection.NewConfig(cappedcollection.WithDataVersion(2))
	_, err := c.Resize(ctx, cfg)
	require.Error(t, err)
	require.Equal(t, cappedcollection.KindIncompatibleDataVersion, cappedcollection.KindOf(err))
}

func bytesToStrings(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}
