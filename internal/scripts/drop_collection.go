package scripts

// dropCollectionBody implements spec §4.10 drop_collection. ARGV: prefix,
// n, data_glob, time_glob (the two glob patterns are computed Go-side by
// internal/keyspace so the Lua body stays backing-store-enumeration-only).
const dropCollectionBody = `
local prefix, n, data_glob, time_glob = ARGV[1], ARGV[2], ARGV[3], ARGV[4]
local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)

local deleted = 0
if redis.call('EXISTS', skeyname) == 1 then
  redis.call('DEL', skeyname)
  deleted = deleted + 1
end
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

return ok_reply(deleted)
`

// DropCollection is the full source sent to Redis for drop_collection.
const DropCollection = preamble + dropCollectionBody
