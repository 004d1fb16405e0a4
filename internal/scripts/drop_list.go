package scripts

// dropListBody implements spec §4.10 drop_list. ARGV: prefix, n, l.
const dropListBody = `
local prefix, n, l = ARGV[1], ARGV[2], ARGV[3]
local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)
local dkeyname = dkey(prefix, n, l)
local tkeyname = tkey(prefix, n, l)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

if redis.call('EXISTS', dkeyname) == 0 then
  return ok_reply(false)
end

local list_len = redis.call('HLEN', dkeyname)
redis.call('DEL', dkeyname)
if redis.call('EXISTS', tkeyname) == 1 then
  redis.call('DEL', tkeyname)
end
redis.call('ZREM', qkeyname, l)
redis.call('HINCRBY', skeyname, 'items', -list_len)
redis.call('HINCRBY', skeyname, 'lists', -1)

return ok_reply(true)
`

// DropList is the full source sent to Redis for drop_list.
const DropList = preamble + dropListBody
