package scripts

// receiveBody implements spec §4.9. ARGV: prefix, n, l, mode ("val",
// "len", "vals", or "all"), data_id (only used by mode "val"). A missing
// collection or missing list yields an empty/nil result, not an error.
const receiveBody = `
local prefix, n, l, mode, data_id = ARGV[1], ARGV[2], ARGV[3], ARGV[4], ARGV[5]
local dkeyname = dkey(prefix, n, l)

if mode == 'val' then
  local v = redis.call('HGET', dkeyname, data_id)
  return ok_reply(v)
elseif mode == 'len' then
  return ok_reply(redis.call('HLEN', dkeyname))
elseif mode == 'vals' then
  local kv = redis.call('HGETALL', dkeyname)
  local vals = {}
  for i = 2, #kv, 2 do
    table.insert(vals, kv[i])
  end
  return ok_reply(vals)
else
  local kv = redis.call('HGETALL', dkeyname)
  return ok_reply(kv)
end
`

// Receive is the full source sent to Redis for the receive operation.
const Receive = preamble + receiveBody
