package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"reportclean/internal/cleaner"
	apierrors "reportclean/internal/errors"
	"reportclean/internal/exporter"
	appmiddleware "reportclean/internal/middleware"
	"reportclean/internal/services"
	api "reportclean/pkg/contracts/api/v1"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

// CleanHandler handles report upload, cleaning and download
type CleanHandler struct {
	service        CleaningService
	validator      *appmiddleware.Validator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewCleanHandler creates a new clean handler. maxUploadBytes bounds the
// whole multipart request body.
func NewCleanHandler(service CleaningService, validator *appmiddleware.Validator, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64, logger *slog.Logger) *CleanHandler {
	return &CleanHandler{
		service:        service,
		validator:      validator,
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "clean_handler")),
	}
}

// Routes returns the cleaning routes, mounted under /api
func (h *CleanHandler) Routes() chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the cleaning routes on r
func (h *CleanHandler) RegisterRoutes(r chi.Router) {
	r.With(h.RequireMultipart).Post("/clean", h.Clean)
	r.Get("/download/{jobID}/{filename}", h.Download)
}

// RequireMultipart rejects requests that are not multipart/form-data
func (h *CleanHandler) RequireMultipart(next http.Handler) http.Handler {
	return appmiddleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")(next)
}

// Clean handles POST /api/clean
func (h *CleanHandler) Clean(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := api.CleanRequest{
		CompletedFilter: normalizeField(r.FormValue(api.FieldCompletedFilter)),
		Response:        normalizeField(r.FormValue(api.FieldResponse)),
		Format:          normalizeField(r.FormValue(api.FieldFormat)),
	}

	file, header, err := r.FormFile(api.FieldZipFile)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// reported by validation below
	case err != nil:
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	default:
		defer file.Close()
		req.ZipFileName = header.Filename
		req.ZipFileSize = header.Size
	}

	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	mode := cleaner.DefaultMode
	if req.CompletedFilter != "" {
		if mode, err = cleaner.ParseMode(req.CompletedFilter); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(api.FieldCompletedFilter, err.Error()))
			return
		}
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(api.FieldFormat, err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "Clean requested",
		slog.String("request_id", appmiddleware.GetRequestID(ctx)),
		slog.String("file", req.ZipFileName),
		slog.Int64("size", req.ZipFileSize),
		slog.String("mode", mode.String()),
		slog.String("format", string(format)))

	summary, err := h.service.CleanArchive(ctx, services.CleanRequest{
		Archive:     file,
		ArchiveName: req.ZipFileName,
		Mode:        mode,
		Format:      format,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if req.Response == api.ResponseFile {
		h.serveFile(w, r, summary.Path, summary.FileName)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toCleanResponse(summary))
}

// Download handles GET /api/download/{jobID}/{filename}
func (h *CleanHandler) Download(w http.ResponseWriter, r *http.Request) {
	// chi matches on the raw path, so encoded separators are still escaped
	filename, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	req := api.DownloadRequest{
		JobID:    chi.URLParam(r, "jobID"),
		FileName: filename,
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	path, err := h.service.OutputPath(req.JobID, req.FileName)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.serveFile(w, r, path, req.FileName)
}

// serveFile streams a stored report as an attachment
func (h *CleanHandler) serveFile(w http.ResponseWriter, r *http.Request, path, name string) {
	f, err := os.Open(path)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewNotFoundError("cleaned report"))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("download", err))
		return
	}

	contentType := "application/octet-stream"
	if format, err := exporter.ParseFormat(strings.TrimPrefix(filepath.Ext(name), ".")); err == nil {
		contentType = format.ContentType()
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func toCleanResponse(s *services.CleanSummary) api.CleanResponse {
	return api.CleanResponse{
		Message:         api.CleanedMessage,
		JobID:           s.JobID,
		CleanedCSV:      s.FileName,
		DownloadURL:     DownloadURL(s.JobID, s.FileName),
		SourceFile:      s.SourceFile,
		CompletedFilter: s.Mode.String(),
		Format:          string(s.Format),
		RowsBefore:      s.InputRows,
		RowsAfter:       s.OutputRows,
		MaleCompleted:   s.MaleCompleted,
		FemaleCompleted: s.FemaleCompleted,
		Exclusions: api.Exclusions{
			RemovedFromProgram: s.Exclusions.RemovedFromProgram,
			NotCompleted:       s.Exclusions.NotCompleted,
			Completed:          s.Exclusions.Completed,
			CompletedElsewhere: s.Exclusions.CompletedElsewhere,
			DuplicateEmail:     s.Exclusions.DuplicateEmail,
		},
		Columns: s.Columns,
	}
}

// DownloadURL returns the path a stored output is served from
func DownloadURL(jobID, filename string) string {
	return "/api/download/" + url.PathEscape(jobID) + "/" + url.PathEscape(filename)
}

func normalizeField(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
