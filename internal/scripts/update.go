package scripts

// updateBody implements spec §4.6. ARGV: prefix, n, l, data_id, data,
// new_data_time (0 means "keep existing time"), debug_id.
const updateBody = `
local prefix, n, l, data_id, data, new_data_time = ARGV[1], ARGV[2], ARGV[3], ARGV[4], ARGV[5], tonumber(ARGV[6])

local skeyname = skey(prefix, n)
local qkeyname = qkey(prefix, n)
local dkeyname = dkey(prefix, n, l)
local tkeyname = tkey(prefix, n, l)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

if redis.call('HEXISTS', dkeyname, data_id) == 0 then
  return err_reply(CODE_NON_EXISTENT_DATA_ID, 'data id does not exist')
end

local status = read_status(skeyname)
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

return ok_reply(1, cleaned)
`

// Update is the full source sent to Redis for the update operation.
const Update = preamble + updateBody
