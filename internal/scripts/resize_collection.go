package scripts

// resizeCollectionBody implements the public "resize" operation (spec
// §6): unlike verify_collection, which only validates a caller's
// parameters against what is stored, resize actually overwrites
// older_allowed/advance_cleanup_bytes/advance_cleanup_num/memory_reserve
// with the caller's values and reports how many of them actually
// changed. data_version is never resized — a mismatch there still means
// incompatible-data-version, the same as verify_collection.
// ARGV: prefix, n, older_allowed, advance_cleanup_bytes,
// advance_cleanup_num, memory_reserve, data_version.
const resizeCollectionBody = `
local prefix, n = ARGV[1], ARGV[2]
local older_allowed = tonumber(ARGV[3])
local advance_cleanup_bytes = tonumber(ARGV[4])
local advance_cleanup_num = tonumber(ARGV[5])
local memory_reserve = tonumber(ARGV[6])
local data_version = tonumber(ARGV[7])
local skeyname = skey(prefix, n)

if not status_exists(skeyname) then
  return err_reply(CODE_COLLECTION_DELETED, 'collection deleted')
end

local status = read_status(skeyname)

if status.data_version ~= data_version then
  return err_reply(CODE_INCOMPATIBLE_DATA_VERSION, 'incompatible data version')
end

local changed = 0
if status.older_allowed ~= older_allowed then
  redis.call('HSET', skeyname, 'older_allowed', older_allowed)
  changed = changed + 1
end
if status.advance_cleanup_bytes ~= advance_cleanup_bytes then
  redis.call('HSET', skeyname, 'advance_cleanup_bytes', advance_cleanup_bytes)
  changed = changed + 1
end
if status.advance_cleanup_num ~= advance_cleanup_num then
  redis.call('HSET', skeyname, 'advance_cleanup_num', advance_cleanup_num)
  changed = changed + 1
end
if status.memory_reserve ~= memory_reserve then
  redis.call('HSET', skeyname, 'memory_reserve', memory_reserve)
  changed = changed + 1
end

return ok_reply(changed, older_allowed, advance_cleanup_bytes, advance_cleanup_num,
  string.format('%.4f', memory_reserve), data_version)
`

// ResizeCollection is the full source sent to Redis for resize.
const ResizeCollection = preamble + resizeCollectionBody
