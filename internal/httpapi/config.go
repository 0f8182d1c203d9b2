package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Default remains 1 MiB for backward compatibility.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// awaitTimeout bounds how long /v1/await blocks when the request does
// not carry its own budget; awaitTimeoutMax caps what a request may ask
// for. Watchers are removed and cancelled on expiry so the registry
// cannot accumulate abandoned entries through this endpoint.
var (
	awaitTimeout    = 30 * time.Second
	awaitTimeoutMax = 5 * time.Minute
)

// SetAwaitTimeout configures the default /v1/await wait budget
// (non-positive restores the default).
func SetAwaitTimeout(d time.Duration) {
	if d <= 0 {
		awaitTimeout = 30 * time.Second
		return
	}
	awaitTimeout = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
