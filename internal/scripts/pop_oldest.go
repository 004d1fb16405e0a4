package scripts

// popOldestBody implements spec §4.8. ARGV: prefix, n. An empty or
// missing queue yields no-error + empty (found=false), even when the
// status record is itself missing, since "nothing to pop" is never an
// error; a populated queue whose status record has vanished is treated
// as collection-deleted (the two structures diverged, which should only
// happen if something outside this engine deleted the status key).
const popOldestBody = `
local prefix, n = ARGV[1], ARGV[2]
local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)

local q_exists = redis.call('EXISTS', qkeyname) == 1
if not q_exists then
  return ok_reply(false)
end
if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

local head = redis.call('ZRANGE', qkeyname, 0, 0, 'WITHSCORES')
local l = head[1]
local very_oldest_time = tonumber(head[2])
local dkeyname = dkey(prefix, n, l)
local tkeyname = tkey(prefix, n, l)

if redis.call('EXISTS', dkeyname) == 0 then
  return err_reply(CODE_MAX_MEMORY_POLICY, 'inconsistency: queue head has no data map')
end

local list_len = redis.call('HLEN', dkeyname)
local data_id, data
if list_len == 1 then
  local kv = redis.call('HGETALL', dkeyname)
  data_id, data = kv[1], kv[2]
else
  local thead = redis.call('ZRANGE', tkeyname, 0, 0)
  data_id = thead[1]
  data = redis.call('HGET', dkeyname, data_id)
end

redis.call('HDEL', dkeyname, data_id)
redis.call('HSET', skeyname, 'last_removed_time', string.format('%.4f', very_oldest_time))

local remaining = list_len - 1
if remaining > 0 then
  redis.call('ZREM', tkeyname, data_id)
  local newhead = redis.call('ZRANGE', tkeyname, 0, 0, 'WITHSCORES')
  redis.call('ZADD', qkeyname, tonumber(newhead[2]), l)
  if remaining == 1 then
    redis.call('DEL', tkeyname)
  end
else
  redis.call('ZREM', qkeyname, l)
  redis.call('HINCRBY', skeyname, 'lists', -1)
end
redis.call('HINCRBY', skeyname, 'items', -1)

return ok_reply(true, l, data)
`

// PopOldest is the full source sent to Redis for the pop_oldest operation.
const PopOldest = preamble + popOldestBody
