package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// runTimeout bounds a POST /run request. Zero means no additional timeout
// beyond server/connection timeouts.
var runTimeout time.Duration

// SetRunTimeout sets the /run timeout (0 disables).
func SetRunTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	runTimeout = d
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
