// Package scripts holds the Lua source for the atomic TxScripts (the
// twelve of spec §4.5-§4.11 plus resize) and the shared preamble they are all compiled with:
// key builders, the status-record reader, the MemoryProbe predicate
// (§4.2), the Evictor's clean() (§4.3), and the Guard's guarded_call()
// (§4.4). Every script sent to Redis is preamble + one operation body, so
// each EVAL is fully self-contained the way production Redis Lua scripts
// must be.
package scripts

// preamble is prepended to every operation body. It defines only `local`
// functions/values so nothing leaks into the Lua interpreter's shared
// global table across unrelated scripts.
const preamble = `
-- Wire status codes: 0 is always success. Error codes are errs.Kind+1,
-- kept in sync by hand with internal/driver/codes.go (driver_test.go
-- round-trips every Kind through kindToCode/codeToKind; it does not
-- read these Lua values).
local CODE_ARGUMENT = 2
local CODE_COLLECTION_DELETED = 7
local CODE_MAX_MEMORY_POLICY = 6
local CODE_DATA_ID_EXISTS = 9
local CODE_OLDER_THAN_ALLOWED = 10
local CODE_NON_EXISTENT_DATA_ID = 11
local CODE_INCOMPATIBLE_DATA_VERSION = 12

local function skey(prefix, n) return prefix .. ':S:' .. n end
local function qkey(prefix, n) return prefix .. ':Q:' .. n end
local function dkey(prefix, n, l) return prefix .. ':D:' .. n .. ':' .. l end
local function tkey(prefix, n, l) return prefix .. ':T:' .. n .. ':' .. l end

local function status_exists(skeyname)
  return redis.call('EXISTS', skeyname) == 1
end

local function read_status(skeyname)
  local v = redis.call('HMGET', skeyname,
    'lists', 'items', 'older_allowed', 'advance_cleanup_bytes',
    'advance_cleanup_num', 'memory_reserve', 'data_version', 'last_removed_time')
  return {
    lists = tonumber(v[1]) or 0,
    items = tonumber(v[2]) or 0,
    older_allowed = tonumber(v[3]) or 0,
    advance_cleanup_bytes = tonumber(v[4]) or 0,
    advance_cleanup_num = tonumber(v[5]) or 0,
    memory_reserve = tonumber(v[6]) or 0,
    data_version = tonumber(v[7]) or 0,
    last_removed_time = tonumber(v[8]) or 0,
  }
end

local function used_memory()
  local info = redis.call('INFO', 'memory')
  local u = string.match(info, 'used_memory:(%d+)')
  return tonumber(u) or 0
end

local function mem_ceiling()
  local cfg = redis.call('CONFIG', 'GET', 'maxmemory')
  return tonumber(cfg[2]) or 0
end

-- effective coefficient: 1+reserve when a ceiling is configured, else 0
-- ("no pressure"), per spec 4.2.
local function reserve_coef(ceiling, reserve)
  if ceiling == 0 then return 0 end
  return 1 + reserve
end

local function is_tight(used, ceiling, coef)
  if coef == 0 then return false end
  return (used * coef) >= ceiling
end

local function is_oom_error(res)
  if type(res) == 'table' and res.err then
    return string.find(res.err, 'OOM') ~= nil
  end
  if type(res) == 'string' then
    return string.find(res, 'OOM') ~= nil
  end
  return false
end

local function run_rollback(rollback)
  for i = #rollback, 1, -1 do
    pcall(rollback[i])
  end
end

local function rollback_and_error(rollback, msg)
  run_rollback(rollback)
  error({err = msg})
end

-- clean implements the Evictor (spec 4.3): removes globally oldest items
-- until memory is sufficient, the advance-cleanup thresholds are met, or
-- the guard (guard_list, guard_data_id) would itself be evicted.
local function clean(prefix, n, guard_list, guard_data_id, forced, rollback)
  local skeyname = skey(prefix, n)
  local qkeyname = qkey(prefix, n)
  local status = read_status(skeyname)

  local used = used_memory()
  local ceiling = mem_ceiling()
  local coef = reserve_coef(ceiling, status.memory_reserve)
  local need_enough = forced or is_tight(used, ceiling, coef)

  local B = status.advance_cleanup_bytes
  local advance_rem = status.advance_cleanup_num
  if advance_rem > status.items then advance_rem = status.items end

  local deleted_total = 0
  local deleted_bytes = 0
  local advance_bytes = 0
  local lists_deleted = 0
  local iter = 1

  while status.items > 0 and (advance_rem > 0 or (B > 0 and advance_bytes < B) or need_enough) do
    if redis.call('EXISTS', qkeyname) == 0 then
      error({err = 'max-memory-policy: queue index missing during cleanup'})
    end

    local head = redis.call('ZRANGE', qkeyname, 0, 0, 'WITHSCORES')
    local excess_list_id = head[1]
    local very_oldest_time = tonumber(head[2])
    local dkeyname = dkey(prefix, n, excess_list_id)
    local tkeyname = tkey(prefix, n, excess_list_id)
    local list_len = redis.call('HLEN', dkeyname)

    local excess_data_id, excess_bytes
    if list_len == 1 then
      local kv = redis.call('HGETALL', dkeyname)
      excess_data_id, excess_bytes = kv[1], kv[2]
    else
      local thead = redis.call('ZRANGE', tkeyname, 0, 0)
      excess_data_id = thead[1]
      excess_bytes = redis.call('HGET', dkeyname, excess_data_id)
    end

    if excess_list_id == guard_list and excess_data_id == guard_data_id then
      if iter == 1 then
        rollback_and_error(rollback, 'out of memory')
      else
        break
      end
    end

    redis.call('HDEL', dkeyname, excess_data_id)
    redis.call('HSET', skeyname, 'last_removed_time', string.format('%.4f', very_oldest_time))

    local remaining = list_len - 1
    if remaining > 0 then
      redis.call('ZREM', tkeyname, excess_data_id)
      local newhead = redis.call('ZRANGE', tkeyname, 0, 0, 'WITHSCORES')
      local new_min = tonumber(newhead[2])
      redis.call('ZADD', qkeyname, new_min, excess_list_id)
      if remaining == 1 then
        redis.call('DEL', tkeyname)
      end
    else
      redis.call('ZREM', qkeyname, excess_list_id)
      lists_deleted = lists_deleted + 1
    end

    deleted_total = deleted_total + 1
    local sz = excess_bytes and #excess_bytes or 0
    deleted_bytes = deleted_bytes + sz
    status.items = status.items - 1

    used = used_memory()
    if not forced then
      if advance_rem > 0 then advance_rem = advance_rem - 1 end
      advance_bytes = advance_bytes + sz
    end
    if need_enough then
      need_enough = is_tight(used, ceiling, coef)
    end
    iter = iter + 1
  end

  if deleted_total > 0 then
    redis.call('HINCRBY', skeyname, 'items', -deleted_total)
    if lists_deleted > 0 then
      redis.call('HINCRBY', skeyname, 'lists', -lists_deleted)
    end
  end

  return deleted_total, deleted_bytes, lists_deleted
end

-- guarded_call implements Guard (spec 4.4): run fn; on an OOM-class
-- error, force-clean and retry up to 2 times; on exhaustion replay the
-- rollback log and raise the last reply.
local function guarded_call(fn, prefix, n, guard_list, guard_data_id, rollback)
  local ok, res = pcall(fn)
  if ok then return res end
  if not is_oom_error(res) then error(res) end

  for _ = 1, 2 do
    clean(prefix, n, guard_list, guard_data_id, true, rollback)
    ok, res = pcall(fn)
    if ok then return res end
    if not is_oom_error(res) then error(res) end
  end

  rollback_and_error(rollback, res.err or res)
end

-- ok_reply(...) returns {0, payload...} on success; err_reply(code, msg)
-- returns {code, msg}. Wire codes are errs.Kind+1; 0 always means success so it
-- never collides with a classified error.
local function ok_reply(...)
  return {0, ...}
end

local function err_reply(code, msg)
  return {code, msg}
end
`
