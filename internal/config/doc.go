// Package config loads the service configuration.
//
// Values are layered, lowest precedence first:
//
//  1. Default()
//  2. a YAML file: $REPORTCLEAN_CONFIG, or the first of config.yaml,
//     configs/config.yaml, ../configs/config.yaml that exists
//  3. REPORTCLEAN_* environment variables
//
// Environment variable names follow the struct layout, for example:
//
//	REPORTCLEAN_SERVER_PORT=5000
//	REPORTCLEAN_SECURITY_ALLOWED_ORIGINS=https://lms.example.org,http://localhost:3000
//	REPORTCLEAN_UPLOAD_MAX_BYTES=52428800
//	REPORTCLEAN_OUTPUT_RETENTION=2h
//	REPORTCLEAN_OUTPUT_REAPER_SCHEDULE="@every 10m"
//
// ResolvePaths turns the configured directories into absolute paths
// relative to the executable, and Paths.EnsureDirectories creates them.
package config
