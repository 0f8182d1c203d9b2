package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: bucket not found: display
	Error string `json:"error" example:"bucket not found: display"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// DesksResponse wraps the list of desk names returned by GET /v1/desks.
type DesksResponse struct {
	Desks []string `json:"desks"`
}

// DeskResponse is the full content of one desk.
type DeskResponse struct {
	// Desk name.
	// example: groups
	Desk    string            `json:"desk" example:"groups"`
	Buckets map[string]Bucket `json:"buckets"`
}

// BucketResponse is the content of one bucket.
type BucketResponse struct {
	// example: groups
	Desk string `json:"desk" example:"groups"`
	// example: display
	Bucket  string `json:"bucket" example:"display"`
	Entries Bucket `json:"entries"`
}

// Entry pairs a key with its value, used where entry order matters.
type Entry struct {
	// example: theme
	Key   string `json:"key" example:"theme"`
	Value Value  `json:"value"`
}

// EntriesResponse is an ordered page of bucket entries.
type EntriesResponse struct {
	// example: groups
	Desk string `json:"desk" example:"groups"`
	// example: display
	Bucket  string  `json:"bucket" example:"display"`
	Entries []Entry `json:"entries"`
}

// AwaitRequest asks the server to wait until a matching settings event is
// published at Path.
type AwaitRequest struct {
	// Subscription path, e.g. /groups/display.
	// example: /groups/display
	Path string `json:"path" example:"/groups/display"`
	// Optional event name to match (put-entry, del-entry, ...). Empty
	// matches any event at the path.
	// example: put-entry
	Event string `json:"event,omitempty" example:"put-entry"`
	// Optional entry key to match.
	// example: theme
	Key string `json:"key,omitempty" example:"theme"`
	// Wait budget in seconds; the server default applies when 0.
	// example: 30
	TimeoutSeconds int `json:"timeout_seconds,omitempty" example:"30"`
}

// AwaitResponse reports a satisfied await.
type AwaitResponse struct {
	// example: /groups/display
	Path string `json:"path" example:"/groups/display"`
	// example: resolved
	Status string `json:"status" example:"resolved"`
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	// Number of desks held by the store.
	// example: 3
	Desks int `json:"desks" example:"3"`
	// Number of buckets across all desks.
	// example: 9
	Buckets int `json:"buckets" example:"9"`
	// Number of entries across all buckets.
	// example: 120
	Entries int `json:"entries" example:"120"`
	// Monotonic revision counter, bumped on every mutation.
	// example: 57
	Revision uint64 `json:"revision" example:"57"`
	// Watchers currently pending across all paths.
	// example: 2
	Watchers int `json:"watchers" example:"2"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
