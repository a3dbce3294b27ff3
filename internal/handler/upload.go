package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/KSD554/imagekit/internal/api"
	"github.com/KSD554/imagekit/internal/credential"
	"github.com/KSD554/imagekit/internal/model"
	"github.com/KSD554/imagekit/internal/transform"
	"github.com/KSD554/imagekit/internal/upload"
)

// multipartOverhead leaves room for form fields around the file part.
const multipartOverhead = 1 << 20

// uploadResponse is the CDN result plus the transformed URL when presets
// were requested.
type uploadResponse struct {
	*model.UploadResult
	TransformedURL string `json:"transformedUrl,omitempty"`
}

// Upload handles POST /api/upload. The file is sent to the CDN with a
// freshly issued credential, retried once on a token error.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.Config.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.TooLarge(w, "file exceeds the upload limit")
			return
		}
		api.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.BadRequest(w, "missing required field: file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.BadRequest(w, "failed to read file: "+err.Error())
		return
	}

	directives, err := transform.Resolve(r.MultipartForm.Value["preset"])
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	folder := strings.TrimSpace(r.FormValue("folder"))
	if folder == "" {
		folder = h.Config.UploadFolder
	}

	res, err := h.Uploader.Upload(r.Context(), upload.File{
		Name:   header.Filename,
		Data:   data,
		Folder: folder,
		Tags:   splitTags(r.FormValue("tags")),
	}, nil)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}

	resp := uploadResponse{UploadResult: res}
	if len(directives) > 0 {
		resp.TransformedURL = h.build(res.URL, directives)
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case upload.IsTokenError(err):
		slog.WarnContext(r.Context(), "upload token rejected after retry", "error", err)
		api.TokenRejected(w, "upload token was rejected, request a new upload")
	case errors.Is(err, upload.ErrTooLarge):
		api.TooLarge(w, err.Error())
	case errors.Is(err, upload.ErrInvalidFile):
		api.UnprocessableEntity(w, err.Error())
	case errors.Is(err, credential.ErrNotConfigured), errors.Is(err, credential.ErrSigning):
		slog.ErrorContext(r.Context(), "upload credential unavailable", "error", err)
		api.InternalError(w, authFailedMessage)
	case errors.Is(err, upload.ErrRejected):
		slog.ErrorContext(r.Context(), "upload rejected by CDN", "error", err)
		api.BadGateway(w, "upload rejected by the CDN")
	default:
		slog.ErrorContext(r.Context(), "upload failed", "error", err)
		api.BadGateway(w, "upload failed")
	}
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
