package scripts

// verifyCollectionBody implements spec §4.11 verify_collection: creates
// the status record with the caller's parameters if it is missing,
// otherwise validates them against what is already stored. A
// data_version mismatch is incompatible-data-version; any other
// mismatch (older_allowed, advance_cleanup_bytes, advance_cleanup_num,
// memory_reserve) is a plain argument error. On creation or a match the
// stored values are returned; a mismatch returns only the error code and
// message.
// ARGV: prefix, n, older_allowed, advance_cleanup_bytes,
// advance_cleanup_num, memory_reserve, data_version.
const verifyCollectionBody = `
local prefix, n = ARGV[1], ARGV[2]
local older_allowed = tonumber(ARGV[3])
local advance_cleanup_bytes = tonumber(ARGV[4])
local advance_cleanup_num = tonumber(ARGV[5])
local memory_reserve = tonumber(ARGV[6])
local data_version = tonumber(ARGV[7])
local skeyname = skey(prefix, n)

if not status_exists(skeyname) then
  redis.call('HSET', skeyname,
    'lists', 0,
    'items', 0,
    'older_allowed', older_allowed,
    'advance_cleanup_bytes', advance_cleanup_bytes,
    'advance_cleanup_num', advance_cleanup_num,
    'memory_reserve', memory_reserve,
    'data_version', data_version,
    'last_removed_time', 0)
  return ok_reply(older_allowed, advance_cleanup_bytes, advance_cleanup_num,
    string.format('%.4f', memory_reserve), data_version)
end

local status = read_status(skeyname)

if status.data_version ~= data_version then
  return err_reply(CODE_INCOMPATIBLE_DATA_VERSION, 'incompatible data version')
end

if status.older_allowed ~= older_allowed
  or status.advance_cleanup_bytes ~= advance_cleanup_bytes
  or status.advance_cleanup_num ~= advance_cleanup_num
  or status.memory_reserve ~= memory_reserve then
  return err_reply(CODE_ARGUMENT, 'collection parameters do not match stored configuration')
end

return ok_reply(status.older_allowed, status.advance_cleanup_bytes,
  status.advance_cleanup_num, string.format('%.4f', status.memory_reserve),
  status.data_version)
`

// VerifyCollection is the full source sent to Redis for verify_collection.
const VerifyCollection = preamble + verifyCollectionBody
