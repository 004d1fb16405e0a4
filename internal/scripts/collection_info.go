package scripts

// collectionInfoBody implements spec §4.11/§6 collection_info. ARGV:
// prefix, n. Returns the status record plus the collection-wide oldest
// time (the minimum score in Q(N), or false if the collection is empty).
const collectionInfoBody = `
local prefix, n = ARGV[1], ARGV[2]
local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

local status = read_status(skeyname)
local oldest_time = false
if redis.call('EXISTS', qkeyname) == 1 then
  local head = redis.call('ZRANGE', qkeyname, 0, 0, 'WITHSCORES')
  oldest_time = head[2]
end

-- memory_reserve and last_removed_time are genuinely fractional;
-- returning them as Lua numbers would truncate to integers over RESP,
-- so they go back as strings (the driver parses them as floats).
return ok_reply(status.lists, status.items, status.older_allowed,
  status.advance_cleanup_bytes, status.advance_cleanup_num,
  string.format('%.4f', status.memory_reserve), status.data_version,
  string.format('%.4f', status.last_removed_time),
  oldest_time)
`

// CollectionInfo is the full source sent to Redis for collection_info.
const CollectionInfo = preamble + collectionInfoBody
