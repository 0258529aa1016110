// Package api contains the HTTP contract definitions of the report cleaner.
// Version v1 represents the current stable API version.
package api

// Multipart form field names accepted by the clean endpoint
const (
	FieldZipFile         = "zip_file"
	FieldCompletedFilter = "completed_filter"
	FieldResponse        = "response"
	FieldFormat          = "format"
)

// Delivery modes for the clean endpoint
const (
	ResponseJSON = "json"
	ResponseFile = "file"
)

// CleanRequest holds the parsed multipart form of POST /api/clean.
// Empty optional fields take their defaults after validation.
type CleanRequest struct {
	ZipFileName     string `form:"zip_file" validate:"required,zipname"`
	ZipFileSize     int64  `form:"-"`
	CompletedFilter string `form:"completed_filter" validate:"omitempty,oneof=yes no"`
	Response        string `form:"response" validate:"omitempty,oneof=json file"`
	Format          string `form:"format" validate:"omitempty,oneof=csv xlsx"`
}

// DownloadRequest identifies a stored cleaned report.
type DownloadRequest struct {
	JobID    string `json:"job_id" validate:"required,uuid"`
	FileName string `json:"filename" validate:"required,filename"`
}
