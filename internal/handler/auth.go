package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/KSD554/imagekit/internal/api"
	"github.com/KSD554/imagekit/internal/credential"
)

const authFailedMessage = "Failed to generate upload authentication"

// UploadAuth handles GET /api/upload-auth. Every call returns a new
// credential and the response must never be cached.
func (h *Handler) UploadAuth(w http.ResponseWriter, r *http.Request) {
	api.SetNoStore(w)

	cred, err := h.Issuer.Issue(r.Context())
	if err != nil {
		reason := "signing"
		if errors.Is(err, credential.ErrNotConfigured) {
			reason = "not_configured"
		}
		slog.ErrorContext(r.Context(), "upload auth failed", "reason", reason, "error", err)
		h.Metrics.CredentialsIssued.WithLabelValues("error").Inc()
		api.InternalError(w, authFailedMessage)
		return
	}

	h.Metrics.CredentialsIssued.WithLabelValues("ok").Inc()
	api.WriteJSON(w, http.StatusOK, cred)
}
