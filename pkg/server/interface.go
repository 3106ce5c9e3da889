/*
Package server implements msgpack IPC for index lookups.

The server reads a stream of msgpack requests from stdin and writes one msgpack
response per request to stdout. Logs go to stderr so they never interleave with
responses.

# IPC

Each request names an action, an index set and the key(s) to look up:

	{"id": "req_001", "action": "get", "set": "meanings.text", "k": 10}

Single value lookups answer with the value found:

	{"id": "req_001", "v": 2, "f": true, "t": 4}

get_all returns the whole run of values stored under a duplicate key, in
file order, and an empty list when the key is absent:

	{"id": "req_002", "action": "get_all", "set": "meanings.text", "k": 10}
	{"id": "req_002", "vs": [1, 2, 3], "c": 3, "t": 6}

batch does the same for many keys at once (at most server.max_batch):

	{"id": "req_003", "action": "batch", "set": "meanings.text", "ks": [10, 20, 99]}
	{"id": "req_003", "r": [[1, 2, 3], [4], []], "c": 3, "t": 9}

get2 and get2_all read the secondary values file and fail with code 409 when
the set has none.

Set management actions are list, info, load, evict and health. list takes an
optional name prefix in "set".

# Errors

Failed requests get an error message and a numeric code:

	{"id": "req_004", "e": "key not found", "c": 404, "t": 3}

A request that cannot be decoded is answered with code 400 and the id it
carried, when one can be recovered.

Codes: 400 invalid request, 404 unknown key or set, 409 missing secondary
values or set not loaded, 422 corrupt index file, 500 anything else.

Every response carries "t", the handling time in microseconds. The server
reloads its TOML config every server.reload_every requests.
*/
package server

// Request is the single request shape for every action.
type Request struct {
	ID     string   `msgpack:"id"`
	Action string   `msgpack:"action"`
	Set    string   `msgpack:"set,omitempty"`
	Key    uint32   `msgpack:"k,omitempty"`
	Keys   []uint32 `msgpack:"ks,omitempty"`
}

// ValueResponse answers get and get2.
type ValueResponse struct {
	ID        string `msgpack:"id"`
	Value     uint32 `msgpack:"v"`
	Found     bool   `msgpack:"f"`
	TimeTaken int64  `msgpack:"t"`
}

// ValuesResponse answers get_all and get2_all.
type ValuesResponse struct {
	ID        string   `msgpack:"id"`
	Values    []uint32 `msgpack:"vs"`
	Count     int      `msgpack:"c"`
	TimeTaken int64    `msgpack:"t"`
}

// BatchResponse answers batch, one result list per requested key.
type BatchResponse struct {
	ID        string     `msgpack:"id"`
	Results   [][]uint32 `msgpack:"r"`
	Count     int        `msgpack:"c"`
	TimeTaken int64      `msgpack:"t"`
}

// SetEntry describes one index set.
type SetEntry struct {
	Name    string `msgpack:"n"`
	Records int    `msgpack:"r"`
	Values2 bool   `msgpack:"v2"`
	Loaded  bool   `msgpack:"l"`
}

// ListResponse answers list.
type ListResponse struct {
	ID        string     `msgpack:"id"`
	Sets      []SetEntry `msgpack:"sets"`
	TimeTaken int64      `msgpack:"t"`
}

// Stats mirrors the loader statistics.
type Stats struct {
	AvailableSets int   `msgpack:"available_sets"`
	LoadedSets    int   `msgpack:"loaded_sets"`
	LoadedRecords int   `msgpack:"loaded_records"`
	MaxOpen       int   `msgpack:"max_open"`
	Mapped        bool  `msgpack:"mapped"`
	Hits          int64 `msgpack:"hits"`
	Misses        int64 `msgpack:"misses"`
}

// InfoResponse answers info. Set is filled when the request named one.
type InfoResponse struct {
	ID        string    `msgpack:"id"`
	Set       *SetEntry `msgpack:"set,omitempty"`
	Stats     Stats     `msgpack:"stats"`
	TimeTaken int64     `msgpack:"t"`
}

// StatusResponse answers load, evict and health.
type StatusResponse struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	TimeTaken int64  `msgpack:"t"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID        string `msgpack:"id"`
	Error     string `msgpack:"e"`
	Code      int    `msgpack:"c"`
	TimeTaken int64  `msgpack:"t"`
}
