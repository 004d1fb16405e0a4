package scripts

// clearCollectionBody implements spec §4.10 clear_collection. ARGV:
// prefix, n, data_glob, time_glob. Resets item/list counters and
// last_removed_time to zero but preserves older_allowed,
// advance_cleanup_bytes, advance_cleanup_num, memory_reserve,
// data_version (spec §9's open-question decision, recorded in
// DESIGN.md).
const clearCollectionBody = `
local prefix, n, data_glob, time_glob = ARGV[1], ARGV[2], ARGV[3], ARGV[4]
local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

local deleted = 0
if redis.call('EXISTS', qkeyname) == 1 then
  redis.call('DEL', qkeyname)
  deleted = deleted + 1
end

local dkeys = redis.call('KEYS', data_glob)
for _, k in ipairs(dkeys) do
  redis.call('DEL', k)
  deleted = deleted + 1
end
local tkeys = redis.call('KEYS', time_glob)
for _, k in ipairs(tkeys) do
  redis.call('DEL', k)
  deleted = deleted + 1
end

redis.call('HSET', skeyname, 'lists', 0, 'items', 0, 'last_removed_time', 0)

return ok_reply(deleted)
`

// ClearCollection is the full source sent to Redis for clear_collection.
const ClearCollection = preamble + clearCollectionBody
