// Package http implements the HTTP handlers of the report cleaner.
//
// Handlers only deal with HTTP concerns: they parse and validate the
// multipart upload, call the cleaning service and render either the JSON
// summary or the cleaned file. Every failure is passed to the shared
// errors.ErrorHandler, which writes an RFC 7807 problem document.
//
// Routes, mounted under /api by the application:
//
//	POST /clean                          upload a zip and clean its report
//	GET  /download/{jobID}/{filename}    fetch a previously cleaned report
//	GET  /health, /health/ready, /health/live, /version
package http
