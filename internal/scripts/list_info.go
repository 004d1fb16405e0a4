package scripts

// listInfoBody implements spec §4.11/§6 list_info. ARGV: prefix, n, l.
const listInfoBody = `
local prefix, n, l = ARGV[1], ARGV[2], ARGV[3]
local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)
local dkeyname = dkey(prefix, n, l)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

local items = redis.call('HLEN', dkeyname)
local oldest_time = false
if items > 0 then
  oldest_time = redis.call('ZSCORE', qkeyname, l)
end

return ok_reply(items, oldest_time)
`

// ListInfo is the full source sent to Redis for list_info.
const ListInfo = preamble + listInfoBody
