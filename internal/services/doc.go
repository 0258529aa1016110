// Package services implements the business logic layer of the report
// cleaner. Handlers and the CLI call into services; services coordinate the
// files, dataset, cleaner and exporter packages.
//
// # Available Services
//
//	- CleaningService: workspace, extraction, discovery, parsing, cleaning
//	  and export of one specialization report per call
//	- HealthService: health, readiness, liveness and version information
//
// # Error Handling
//
// CleaningService returns *errors.AppError values so the transport layer
// can map them to problem details without inspecting package internals:
//
//	- INPUT for a missing or malformed archive or CSV
//	- NOT_FOUND when the archive holds no specialization report
//	- TOO_LARGE when extraction limits are exceeded
//	- VALIDATION when the report lacks the Completed column
//	- STORAGE for failures writing to local disk
package services
