package scripts

// Op names one of the atomic operations a TxScript implements: the
// twelve from spec §4.5-§4.11 plus resize, the mutating counterpart of
// verify_collection that the public "resize" operation (spec §6) needs.
type Op string

const (
	OpInsert           Op = "insert"
	OpUpdate           Op = "update"
	OpUpsert           Op = "upsert"
	OpReceive          Op = "receive"
	OpPopOldest        Op = "pop_oldest"
	OpDropCollection   Op = "drop_collection"
	OpClearCollection  Op = "clear_collection"
	OpDropList         Op = "drop_list"
	OpCollectionInfo   Op = "collection_info"
	OpListInfo         Op = "list_info"
	OpOldestTime       Op = "oldest_time"
	OpVerifyCollection Op = "verify_collection"
	OpResizeCollection Op = "resize_collection"
)

// sources maps each Op to its full Lua source (preamble + body). The
// driver owns script registration and digest caching; this package only
// owns the text.
var sources = map[Op]string{
	OpInsert:           Insert,
	OpUpdate:           Update,
	OpUpsert:           Upsert,
	OpReceive:          Receive,
	OpPopOldest:        PopOldest,
	OpDropCollection:   DropCollection,
	OpClearCollection:  ClearCollection,
	OpDropList:         DropList,
	OpCollectionInfo:   CollectionInfo,
	OpListInfo:         ListInfo,
	OpOldestTime:       OldestTime,
	OpVerifyCollection: VerifyCollection,
	OpResizeCollection: ResizeCollection,
}

// All returns every known Op, in a stable order, for callers that need
// to pre-load all scripts (e.g. on driver construction).
func All() []Op {
	return []Op{
		OpInsert, OpUpdate, OpUpsert, OpReceive, OpPopOldest,
		OpDropCollection, OpClearCollection, OpDropList,
		OpCollectionInfo, OpListInfo, OpOldestTime, OpVerifyCollection,
		OpResizeCollection,
	}
}

// Source returns the full Lua source for op and whether op is known.
func Source(op Op) (string, bool) {
	src, ok := sources[op]
	return src, ok
}
