package handler

import (
	"github.com/KSD554/imagekit/internal/config"
	"github.com/KSD554/imagekit/internal/credential"
	"github.com/KSD554/imagekit/internal/metrics"
	"github.com/KSD554/imagekit/internal/transform"
	"github.com/KSD554/imagekit/internal/upload"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Issuer   *credential.Issuer
	Builder  *transform.Builder
	Uploader *upload.Uploader
	Metrics  *metrics.Metrics
	Config   *config.Config
}
