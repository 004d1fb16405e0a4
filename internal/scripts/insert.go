package scripts

// insertBody implements spec §4.5. ARGV: prefix, n, l, data_id, data,
// data_time, debug_id.
const insertBody = `
local prefix, n, l, data_id, data, data_time = ARGV[1], ARGV[2], ARGV[3], ARGV[4], ARGV[5], tonumber(ARGV[6])

local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)
local dkeyname = dkey(prefix, n, l)
local tkeyname = tkey(prefix, n, l)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

if redis.call('HEXISTS', dkeyname, data_id) == 1 then
  return err_reply(CODE_DATA_ID_EXISTS, 'data id already exists in list')
end

local status = read_status(skeyname)
if status.older_allowed == 0 and data_time < status.last_removed_time then
  return err_reply(CODE_OLDER_THAN_ALLOWED, 'data_time older than last_removed_time')
end

local rollback = {}
local cleaned = clean(prefix, n, l, data_id, false, rollback)

local items_before = redis.call('HLEN', dkeyname)
local existing_id, existing_time
if items_before == 1 then
  local kv = redis.call('HGETALL', dkeyname)
  existing_id = kv[1]
  existing_time = tonumber(redis.call('ZSCORE', qkeyname, l))
end

guarded_call(function() return redis.call('HSET', dkeyname, data_id, data) end,
  prefix, n, l, data_id, rollback)
table.insert(rollback, function() redis.call('HDEL', dkeyname, data_id) end)

if items_before == 0 then
  redis.call('HINCRBY', skeyname, 'lists', 1)
  table.insert(rollback, function() redis.call('HINCRBY', skeyname, 'lists', -1) end)
  guarded_call(function() return redis.call('ZADD', qkeyname, data_time, l) end,
    prefix, n, l, data_id, rollback)
  table.insert(rollback, function() redis.call('ZREM', qkeyname, l) end)
else
  if items_before == 1 then
    guarded_call(function() return redis.call('ZADD', tkeyname, existing_time, existing_id) end,
      prefix, n, l, data_id, rollback)
    table.insert(rollback, function() redis.call('DEL', tkeyname) end)
  end
  guarded_call(function() return redis.call('ZADD', tkeyname, data_time, data_id) end,
    prefix, n, l, data_id, rollback)
  table.insert(rollback, function() redis.call('ZREM', tkeyname, data_id) end)
  local newhead = redis.call('ZRANGE', tkeyname, 0, 0, 'WITHSCORES')
  redis.call('ZADD', qkeyname, tonumber(newhead[2]), l)
end

redis.call('HINCRBY', skeyname, 'items', 1)
if data_time < status.last_removed_time then
  redis.call('HSET', skeyname, 'last_removed_time', 0)
end

return ok_reply(l, cleaned)
`

// Insert is the full source sent to Redis for the insert operation.
const Insert = preamble + insertBody
