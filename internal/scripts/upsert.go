package scripts

// upsertBody implements spec §4.7. ARGV: prefix, n, l, data_id, data,
// has_time (1 if caller supplied an explicit time, else 0), time_value
// (the supplied time when has_time=1, ignored otherwise).
//
// Dispatches to the update branch (new_data_time = 0, "keep existing",
// when has_time=0) or the insert branch (data_time = now(), via Redis's
// replicated TIME command, when has_time=0) exactly as spec §4.7
// describes; each branch's semantics are identical to insert/update.
const upsertBody = `
local prefix, n, l, data_id, data = ARGV[1], ARGV[2], ARGV[3], ARGV[4], ARGV[5]
local has_time = tonumber(ARGV[6])
local time_value = tonumber(ARGV[7])

local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)
local dkeyname = dkey(prefix, n, l)
local tkeyname = tkey(prefix, n, l)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

local status = read_status(skeyname)
local exists = redis.call('HEXISTS', dkeyname, data_id) == 1

if exists then
  local new_data_time = 0
  if has_time == 1 then new_data_time = time_value end

  if status.older_allowed == 0 and new_data_time ~= 0 and new_data_time < status.last_removed_time then
    return err_reply(CODE_OLDER_THAN_ALLOWED, 'new_data_time older than last_removed_time')
  end

  local rollback = {}
  local cleaned = clean(prefix, n, l, data_id, false, rollback)
  if redis.call('HEXISTS', dkeyname, data_id) == 0 then
    return err_reply(CODE_NON_EXISTENT_DATA_ID, 'data id evicted during cleanup')
  end

  local old_data = redis.call('HGET', dkeyname, data_id)
  guarded_call(function() return redis.call('HSET', dkeyname, data_id, data) end,
    prefix, n, l, data_id, rollback)
  table.insert(rollback, function() redis.call('HSET', dkeyname, data_id, old_data) end)

  if new_data_time ~= 0 then
    local list_len = redis.call('HLEN', dkeyname)
    if list_len == 1 then
      redis.call('ZADD', qkeyname, new_data_time, l)
    else
      redis.call('ZADD', tkeyname, new_data_time, data_id)
      local newhead = redis.call('ZRANGE', tkeyname, 0, 0, 'WITHSCORES')
      redis.call('ZADD', qkeyname, tonumber(newhead[2]), l)
    end
    if new_data_time < status.last_removed_time then
      redis.call('HSET', skeyname, 'last_removed_time', 0)
    end
  end

  return ok_reply(0, cleaned)
end

local data_time = time_value
if has_time == 0 then
  local t = redis.call('TIME')
  data_time = tonumber(t[1]) + (tonumber(t[2]) / 1000000)
end

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

return ok_reply(1, cleaned)
`

// Upsert is the full source sent to Redis for the upsert operation.
const Upsert = preamble + upsertBody
