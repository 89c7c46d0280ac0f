package handlers

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	middleware "github.com/SomaanRauniyar/datainsight-pro/internal/api/middlewares"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
)

// BriefingHandler serves the read-only listings: past uploads and generated
// briefings.
type BriefingHandler struct {
	dbclient core.DbClient
	log      *logrus.Entry
}

func NewBriefingHandler(db core.DbClient, log *logrus.Entry) *BriefingHandler {
	return &BriefingHandler{dbclient: db, log: log}
}

func (h *BriefingHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	uploads, err := h.dbclient.ListFileUploadsByUser(r.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("upload listing failed")
		writeError(w, http.StatusInternalServerError, "could not list uploads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

func (h *BriefingHandler) ListBriefings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	briefingType := r.URL.Query().Get("type")
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	briefings, err := h.dbclient.ListBriefingsByUser(r.Context(), userID, briefingType, limit)
	if err != nil {
		h.log.WithError(err).Error("briefing listing failed")
		writeError(w, http.StatusInternalServerError, "could not list briefings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"briefings": briefings})
}
