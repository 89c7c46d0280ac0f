package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	middleware "github.com/SomaanRauniyar/datainsight-pro/internal/api/middlewares"
	"github.com/SomaanRauniyar/datainsight-pro/internal/core"
)

const querySystemPrompt = "You are a data analyst assistant. Answer using only the provided file excerpts. If the excerpts do not contain the answer, say 'I cannot find this in your uploaded data.'"

// QueryHandler answers natural-language questions over the caller's indexed
// uploads via vector search plus the LLM.
type QueryHandler struct {
	dbclient core.DbClient
	embedder core.EmbeddingProvider
	llm      core.LLMProvider
	log      *logrus.Entry
}

func NewQueryHandler(db core.DbClient, emb core.EmbeddingProvider, llm core.LLMProvider, log *logrus.Entry) *QueryHandler {
	return &QueryHandler{dbclient: db, embedder: emb, llm: llm, log: log}
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	vecs, err := h.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil || len(vecs) == 0 {
		h.log.WithError(err).Error("query embedding failed")
		writeError(w, http.StatusInternalServerError, "embedding failed")
		return
	}

	chunks, err := h.dbclient.SearchFileChunks(ctx, userID, vecs[0], 5)
	if err != nil {
		h.log.WithError(err).Error("chunk search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if len(chunks) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"answer": "You have no processed uploads to query yet."})
		return
	}

	var sb strings.Builder
	for _, ch := range chunks {
		sb.WriteString(ch.Content)
		sb.WriteString("\n---\n")
	}
	userPrompt := fmt.Sprintf("Excerpts:\n%s\nQuestion: %s", sb.String(), req.Query)

	answer, err := h.llm.Generate(ctx, querySystemPrompt, userPrompt)
	if err != nil {
		h.log.WithError(err).Error("answer generation failed")
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
