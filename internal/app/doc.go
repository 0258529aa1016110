// Package app wires the report cleaner together and manages its lifecycle.
//
// New resolves the configured directories, initializes OpenTelemetry,
// builds the cleaning and health services, registers the output reaper on
// a cron schedule and assembles the chi router:
//
//	RequestID → RealIP → OTel → StructuredLogger → Recovery → SecurityHeaders → CORS
//	    /metrics                    Prometheus scrape endpoint
//	    RateLimiter → Timeout
//	        /api/...                clean, download, health, version
//	        /clean-automated-csv    same handler as POST /api/clean
//
// Serve runs the HTTP server and the scheduler under one errgroup. When the
// context is cancelled the server drains in-flight requests, the scheduler
// waits for a running reap, and telemetry is flushed.
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
