// Package cappedcollection implements a capped-collection storage engine
// atop Redis: a named container of many lists, each an ordered sequence
// of data items keyed by a caller-supplied id and sorted by a
// caller-supplied data time, with memory-pressure-driven fleet-wide FIFO
// eviction of the globally oldest items.
//
// All mutation and read logic runs as atomic Lua scripts (internal/scripts)
// dispatched through internal/driver, so a Collection's methods never
// need client-side locking: Redis's single-threaded EVAL is the only
// synchronization primitive this package relies on.
package cappedcollection

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/trackingsoft/go-cappedcollection/internal/driver"
	"github.com/trackingsoft/go-cappedcollection/internal/errs"
	"github.com/trackingsoft/go-cappedcollection/internal/hooks"
	"github.com/trackingsoft/go-cappedcollection/internal/keyspace"
	"github.com/trackingsoft/go-cappedcollection/internal/memprobe"
	"github.com/trackingsoft/go-cappedcollection/internal/scripts"
	"github.com/trackingsoft/go-cappedcollection/internal/validate"
)

// Collection is a handle to one named capped collection. It is safe for
// concurrent use: every data operation dispatches exactly one atomic
// script (Ping and RedisConfigOK only read server state).
type Collection struct {
	name  string
	cfg   Config
	ks    keyspace.KeySpace
	drv   *driver.Driver
	probe *memprobe.Probe
	hooks *hooks.Hooks
	log   zerolog.Logger
}

// CollectionOption configures optional Collection behavior at Open time.
type CollectionOption func(*Collection)

// WithHooks attaches lifecycle hooks (insert/update/upsert/evict/error
// notifications).
func WithHooks(h *hooks.Hooks) CollectionOption {
	return func(c *Collection) { c.hooks = h }
}

// WithLogger attaches a zerolog logger; the zero value (zerolog.Nop())
// is used otherwise.
func WithLogger(log zerolog.Logger) CollectionOption {
	return func(c *Collection) { c.log = log }
}

// Open verifies (creating on first use) the collection named name on
// rdb, per cfg, and returns a ready Collection. A mismatch between cfg
// and a previously stored configuration fails with KindArgument or
// KindIncompatibleDataVersion (spec §4.11).
func Open(ctx context.Context, rdb *redis.Client, name string, cfg Config, opts ...CollectionOption) (*Collection, error) {
	const op = "open"
	if err := validate.Name(op, "name", name); err != nil {
		return nil, err
	}

	c := &Collection{
		name:  name,
		cfg:   cfg,
		ks:    keyspace.New(cfg.Prefix),
		drv:   driver.New(rdb, zerolog.Nop()),
		probe: memprobe.New(rdb),
		hooks: &hooks.Hooks{},
		log:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.drv = driver.New(rdb, c.log)

	if c.cfg.MaxDatasize == 0 {
		ceiling, err := c.probe.Ceiling(ctx)
		if err != nil {
			return nil, errs.New(op, errs.KindNetwork, "failed to read maxmemory", err)
		}
		c.cfg.MaxDatasize = defaultMaxDatasize
		if ceiling > 0 && ceiling < uint64(defaultMaxDatasize) {
			c.cfg.MaxDatasize = int64(ceiling)
		}
	}

	policy, err := c.probe.Policy(ctx)
	if err != nil {
		return nil, errs.New(op, errs.KindNetwork, "failed to read maxmemory-policy", err)
	}
	if policy != "" && policy != "noeviction" {
		return nil, errs.New(op, errs.KindMaxMemoryPolicy,
			fmt.Sprintf("maxmemory-policy %q is not noeviction", policy), nil)
	}

	if err := c.drv.Preload(ctx); err != nil {
		c.log.Warn().Err(err).Msg("script preload failed, will load on demand")
	}

	out, err := c.drv.Dispatch(ctx, scripts.OpVerifyCollection, nil,
		c.cfg.Prefix, c.name,
		boolToInt(c.cfg.OlderAllowed), c.cfg.AdvanceCleanupBytes, c.cfg.AdvanceCleanupNum,
		c.cfg.MemoryReserve, c.cfg.DataVersion)
	if err != nil {
		c.hooks.RunError(err)
		return nil, err
	}
	c.cfg.OlderAllowed = intToBool(out[0])
	c.cfg.AdvanceCleanupBytes = toI64(out[1])
	c.cfg.AdvanceCleanupNum = toI64(out[2])
	c.cfg.MemoryReserve = toF64(out[3])
	c.cfg.DataVersion = toI64(out[4])

	return c, nil
}

// Insert adds (dataID, data) to list l with the given dataTime. It
// returns l on success, or KindDataIDExists / KindOlderThanAllowed /
// KindCollectionDeleted / KindDataTooLarge on failure (spec §4.5).
func (c *Collection) Insert(ctx context.Context, l, dataID string, data []byte, dataTime float64) (string, error) {
	const op = "insert"
	if err := c.validateItem(op, l, data, dataTime); err != nil {
		return "", err
	}
	if err := validate.DataTime(op, dataTime); err != nil {
		return "", err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpInsert, nil,
		c.cfg.Prefix, c.name, l, dataID, data, dataTime, uuid.NewString())
	if err != nil {
		c.hooks.RunError(err)
		return "", err
	}
	c.notifyCleaned(op, l, dataID, out[1])
	c.hooks.Run(c.hooks.OnInsert, hooks.Event{Op: op, Collection: c.name, List: l, DataID: dataID})
	return l, nil
}

// Update overwrites the bytes (and, if newDataTime != 0, the ordering
// time) of an existing item. It returns true on success (spec §4.6).
func (c *Collection) Update(ctx context.Context, l, dataID string, data []byte, newDataTime float64) (bool, error) {
	const op = "update"
	if err := validate.Name(op, "list", l); err != nil {
		return false, err
	}
	if err := validate.DataSize(op, data, c.cfg.MaxDatasize); err != nil {
		return false, err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpUpdate, nil,
		c.cfg.Prefix, c.name, l, dataID, data, newDataTime, uuid.NewString())
	if err != nil {
		c.hooks.RunError(err)
		return false, err
	}
	c.notifyCleaned(op, l, dataID, out[1])
	c.hooks.Run(c.hooks.OnUpdate, hooks.Event{Op: op, Collection: c.name, List: l, DataID: dataID})
	return true, nil
}

// Upsert updates dataID in l if present, else inserts it; dataTime is
// used as the new/initial time when hasTime is true, otherwise the
// existing time is kept (on update) or the server's current time is
// used (on insert), per spec §4.7.
func (c *Collection) Upsert(ctx context.Context, l, dataID string, data []byte, dataTime float64, hasTime bool) (string, error) {
	const op = "upsert"
	if err := c.validateItem(op, l, data, 0); err != nil {
		return "", err
	}
	if hasTime {
		if err := validate.DataTime(op, dataTime); err != nil {
			return "", err
		}
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpUpsert, nil,
		c.cfg.Prefix, c.name, l, dataID, data, boolToInt(hasTime), dataTime)
	if err != nil {
		c.hooks.RunError(err)
		return "", err
	}
	c.notifyCleaned(op, l, dataID, out[1])
	c.hooks.Run(c.hooks.OnUpsert, hooks.Event{Op: op, Collection: c.name, List: l, DataID: dataID})
	return l, nil
}

// Receive returns the bytes stored for (l, dataID).
func (c *Collection) Receive(ctx context.Context, l, dataID string) ([]byte, error) {
	const op = "receive"
	if err := validate.Name(op, "list", l); err != nil {
		return nil, err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpReceive, nil, c.cfg.Prefix, c.name, l, "val", dataID)
	if err != nil {
		c.hooks.RunError(err)
		return nil, err
	}
	if out[0] == nil {
		return nil, nil
	}
	return toBytes(out[0]), nil
}

// ReceiveLen returns the number of items in l.
func (c *Collection) ReceiveLen(ctx context.Context, l string) (int64, error) {
	const op = "receive"
	if err := validate.Name(op, "list", l); err != nil {
		return 0, err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpReceive, nil, c.cfg.Prefix, c.name, l, "len", "")
	if err != nil {
		c.hooks.RunError(err)
		return 0, err
	}
	return toI64(out[0]), nil
}

// ReceiveAll returns every item in l as (dataID, bytes) pairs. Order is
// not part of the contract.
func (c *Collection) ReceiveAll(ctx context.Context, l string) ([]Item, error) {
	const op = "receive"
	if err := validate.Name(op, "list", l); err != nil {
		return nil, err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpReceive, nil, c.cfg.Prefix, c.name, l, "all", "")
	if err != nil {
		c.hooks.RunError(err)
		return nil, err
	}
	kv, _ := out[0].([]any)
	items := make([]Item, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		items = append(items, Item{DataID: toStr(kv[i]), Data: toBytes(kv[i+1])})
	}
	return items, nil
}

// ReceiveValues returns every item's bytes in l, without ids.
func (c *Collection) ReceiveValues(ctx context.Context, l string) ([][]byte, error) {
	const op = "receive"
	if err := validate.Name(op, "list", l); err != nil {
		return nil, err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpReceive, nil, c.cfg.Prefix, c.name, l, "vals", "")
	if err != nil {
		c.hooks.RunError(err)
		return nil, err
	}
	raw, _ := out[0].([]any)
	vals := make([][]byte, 0, len(raw))
	for _, v := range raw {
		vals = append(vals, toBytes(v))
	}
	return vals, nil
}

// PopOldest removes and returns the globally oldest item in the
// collection (spec §4.8). Popped.Found is false when the collection is
// empty.
func (c *Collection) PopOldest(ctx context.Context) (Popped, error) {
	out, err := c.drv.Dispatch(ctx, scripts.OpPopOldest, nil, c.cfg.Prefix, c.name)
	if err != nil {
		c.hooks.RunError(err)
		return Popped{}, err
	}
	found := intToBool(out[0])
	if !found {
		return Popped{Found: false}, nil
	}
	p := Popped{Found: true, List: toStr(out[1]), Data: toBytes(out[2])}
	c.hooks.Run(c.hooks.OnEvict, hooks.Event{Op: "pop_oldest", Collection: c.name,
		EvictedList: p.List, EvictedDataID: ""})
	return p, nil
}

// CollectionInfo reports the status record plus the collection-wide
// oldest time.
func (c *Collection) CollectionInfo(ctx context.Context) (CollectionInfo, error) {
	out, err := c.drv.Dispatch(ctx, scripts.OpCollectionInfo, nil, c.cfg.Prefix, c.name)
	if err != nil {
		c.hooks.RunError(err)
		return CollectionInfo{}, err
	}
	info := CollectionInfo{
		Lists:               toI64(out[0]),
		Items:               toI64(out[1]),
		OlderAllowed:        intToBool(out[2]),
		AdvanceCleanupBytes: toI64(out[3]),
		AdvanceCleanupNum:   toI64(out[4]),
		MemoryReserve:       toF64(out[5]),
		DataVersion:         toI64(out[6]),
		LastRemovedTime:     toF64(out[7]),
	}
	if out[8] != nil {
		info.OldestTime = toF64(out[8])
		info.HasOldestTime = true
	}
	return info, nil
}

// ListInfo reports the item count and oldest time of a single list.
func (c *Collection) ListInfo(ctx context.Context, l string) (ListInfo, error) {
	const op = "list_info"
	if err := validate.Name(op, "list", l); err != nil {
		return ListInfo{}, err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpListInfo, nil, c.cfg.Prefix, c.name, l)
	if err != nil {
		c.hooks.RunError(err)
		return ListInfo{}, err
	}
	info := ListInfo{Items: toI64(out[0])}
	if out[1] != nil {
		info.OldestTime = toF64(out[1])
		info.HasOldestTime = true
	}
	return info, nil
}

// ListExists reports whether l currently has any items.
func (c *Collection) ListExists(ctx context.Context, l string) (bool, error) {
	info, err := c.ListInfo(ctx, l)
	if err != nil {
		return false, err
	}
	return info.Items > 0, nil
}

// OldestTime returns the collection-wide minimum data time, i.e. the
// time PopOldest would return next (spec §4.11). ok is false when the
// collection is empty.
func (c *Collection) OldestTime(ctx context.Context) (t float64, ok bool, err error) {
	out, err := c.drv.Dispatch(ctx, scripts.OpOldestTime, nil, c.cfg.Prefix, c.name)
	if err != nil {
		c.hooks.RunError(err)
		return 0, false, err
	}
	if out[0] == nil || out[0] == false {
		return 0, false, nil
	}
	return toF64(out[0]), true, nil
}

// DropCollection deletes the collection entirely: its status record,
// queue, and every list's data and time structures. Returns the number
// of backing-store keys removed.
func (c *Collection) DropCollection(ctx context.Context) (int64, error) {
	out, err := c.drv.Dispatch(ctx, scripts.OpDropCollection, nil,
		c.cfg.Prefix, c.name, c.ks.DataGlob(c.name), c.ks.TimeGlob(c.name))
	if err != nil {
		c.hooks.RunError(err)
		return 0, err
	}
	return toI64(out[0]), nil
}

// ClearCollection removes every list and resets item/list counters, but
// keeps the status record and its configuration fields (spec §9).
// Returns the number of backing-store keys removed.
func (c *Collection) ClearCollection(ctx context.Context) (int64, error) {
	out, err := c.drv.Dispatch(ctx, scripts.OpClearCollection, nil,
		c.cfg.Prefix, c.name, c.ks.DataGlob(c.name), c.ks.TimeGlob(c.name))
	if err != nil {
		c.hooks.RunError(err)
		return 0, err
	}
	return toI64(out[0]), nil
}

// DropList deletes one list. Returns false if the list did not exist.
func (c *Collection) DropList(ctx context.Context, l string) (bool, error) {
	const op = "drop_list"
	if err := validate.Name(op, "list", l); err != nil {
		return false, err
	}
	out, err := c.drv.Dispatch(ctx, scripts.OpDropList, nil, c.cfg.Prefix, c.name, l)
	if err != nil {
		c.hooks.RunError(err)
		return false, err
	}
	return intToBool(out[0]), nil
}

// Resize overwrites the collection's older_allowed/advance_cleanup_bytes/
// advance_cleanup_num/memory_reserve with cfg's values and returns the
// number of fields that actually changed. data_version is never
// resized: a mismatched cfg.DataVersion still fails with
// KindIncompatibleDataVersion, same as Open (spec §6).
func (c *Collection) Resize(ctx context.Context, cfg Config) (int64, error) {
	out, err := c.drv.Dispatch(ctx, scripts.OpResizeCollection, nil,
		c.cfg.Prefix, c.name,
		boolToInt(cfg.OlderAllowed), cfg.AdvanceCleanupBytes, cfg.AdvanceCleanupNum,
		cfg.MemoryReserve, cfg.DataVersion)
	if err != nil {
		c.hooks.RunError(err)
		return 0, err
	}
	changed := toI64(out[0])
	c.cfg.OlderAllowed = intToBool(out[1])
	c.cfg.AdvanceCleanupBytes = toI64(out[2])
	c.cfg.AdvanceCleanupNum = toI64(out[3])
	c.cfg.MemoryReserve = toF64(out[4])
	return changed, nil
}

// RedisConfigOK reports whether the connected instance's
// maxmemory-policy is compatible with this engine (spec §6: must be
// noeviction). An empty policy reply is also reported as compatible.
func (c *Collection) RedisConfigOK(ctx context.Context) (bool, error) {
	policy, err := c.probe.Policy(ctx)
	if err != nil {
		return false, errs.New("redis_config_ok", errs.KindNetwork, "failed to read maxmemory-policy", err)
	}
	return policy == "" || policy == "noeviction", nil
}

// Ping reports whether the backing connection is reachable.
func (c *Collection) Ping(ctx context.Context) (bool, error) {
	if _, err := c.probe.Used(ctx); err != nil {
		return false, errs.New("ping", errs.KindNetwork, "backing store unreachable", err)
	}
	return true, nil
}

func (c *Collection) validateItem(op, l string, data []byte, dataTime float64) error {
	if err := validate.Name(op, "list", l); err != nil {
		return err
	}
	if err := validate.DataSize(op, data, c.cfg.MaxDatasize); err != nil {
		return err
	}
	if dataTime != 0 {
		if err := validate.DataTime(op, dataTime); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collection) notifyCleaned(op, l, dataID string, cleanedRaw any) {
	cleaned := toI64(cleanedRaw)
	if cleaned > 0 {
		c.hooks.Run(c.hooks.OnEvict, hooks.Event{
			Op: op, Collection: c.name, List: l, DataID: dataID, Cleanings: int(cleaned),
		})
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intToBool(v any) bool {
	return toI64(v) != 0
}

func toI64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		var f float64
		fmt.Sscanf(n, "%g", &f)
		return int64(f)
	default:
		return 0
	}
}

func toF64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case string:
		var f float64
		fmt.Sscanf(n, "%g", &f)
		return f
	default:
		return math.NaN()
	}
}

func toStr(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func toBytes(v any) []byte {
	switch b := v.(type) {
	case string:
		return []byte(b)
	case []byte:
		return b
	default:
		return nil
	}
}
