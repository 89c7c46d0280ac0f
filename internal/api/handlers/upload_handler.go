package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	middleware "github.com/SomaanRauniyar/datainsight-pro/internal/api/middlewares"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core/jobtrack"
	"github.com/SomaanRauniyar/datainsight-pro/internal/services"
)

type UploadHandler struct {
	uploads  *services.UploadService
	maxBytes int64
	log      *logrus.Entry
}

func NewUploadHandler(uploads *services.UploadService, maxBytes int64, log *logrus.Entry) *UploadHandler {
	return &UploadHandler{uploads: uploads, maxBytes: maxBytes, log: log}
}

// QuickUpload accepts a multipart file, responds with an instant preview and
// a job id, and leaves full processing to the background workers.
func (h *UploadHandler) QuickUpload(w http.ResponseWriter, r *http.Request) {
	userID, filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.uploads.QuickUpload(r.Context(), userID, filename, data)
	if err != nil {
		h.writeUploadError(w, filename, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Upload is the legacy blocking path: the response carries the full
// processing result.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	res, err := h.uploads.Upload(r.Context(), userID, filename, data)
	if err != nil {
		h.writeUploadError(w, filename, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status returns the job record for a quick upload; evicted or unknown job
// ids get a 404.
func (h *UploadHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	rec, err := h.uploads.Status(jobID)
	if err != nil {
		if errors.Is(err, jobtrack.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *UploadHandler) readUpload(w http.ResponseWriter, r *http.Request) (userID, filename string, data []byte, ok bool) {
	// One extra MiB of form overhead beyond the file limit.
	if err := r.ParseMultipartForm(h.maxBytes + 1<<20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return "", "", nil, false
	}

	userID, found := middleware.UserID(r.Context())
	if !found {
		userID = r.FormValue("user_id")
	}
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "user not identified")
		return "", "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return "", "", nil, false
	}

	return userID, header.Filename, data, true
}

func (h *UploadHandler) writeUploadError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, services.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		h.log.WithField("filename", filename).WithError(err).Error("upload failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
