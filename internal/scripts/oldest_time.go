package scripts

// oldestTimeBody implements spec §4.11 oldest_time: the collection-wide
// minimum data-time, i.e. the time pop_oldest would return next. ARGV:
// prefix, n.
const oldestTimeBody = `
local prefix, n = ARGV[1], ARGV[2]
local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

if redis.call('EXISTS', qkeyname) == 0 then
  return ok_reply(false)
end

local head = redis.call('ZRANGE', qkeyname, 0, 0, 'WITHSCORES')
return ok_reply(head[2])
`

// OldestTime is the full source sent to Redis for oldest_time.
const OldestTime = preamble + oldestTimeBody
