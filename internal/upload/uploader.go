package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/KSD554/imagekit/internal/metrics"
	"github.com/KSD554/imagekit/internal/model"
	"github.com/sethvargo/go-retry"
)

// DefaultBackoff is the wait before retrying after a token error.
const DefaultBackoff = time.Second

// CredentialSource hands out a fresh credential per call.
type CredentialSource interface {
	Issue(ctx context.Context) (model.UploadCredential, error)
}

// File is the payload of an upload.
type File struct {
	Name   string
	Data   []byte
	Folder string
	Tags   []string
}

// Uploader runs uploads with a freshly fetched credential per attempt and
// retries once after a token error.
type Uploader struct {
	credentials CredentialSource
	client      *Client
	backoff     time.Duration
	now         func() time.Time
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// UploaderOption customises an Uploader.
type UploaderOption func(*Uploader)

// WithBackoff sets the wait before the retry. Non-positive values are ignored.
func WithBackoff(d time.Duration) UploaderOption {
	return func(u *Uploader) {
		if d > 0 {
			u.backoff = d
		}
	}
}

// WithMetrics records retries and outcomes on m.
func WithMetrics(m *metrics.Metrics) UploaderOption {
	return func(u *Uploader) { u.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) UploaderOption {
	return func(u *Uploader) { u.logger = l }
}

// NewUploader creates an Uploader.
func NewUploader(creds CredentialSource, client *Client, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		credentials: creds,
		client:      client,
		backoff:     DefaultBackoff,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload stores f on the CDN. The file name is made unique once and reused
// for the retry.
func (u *Uploader) Upload(ctx context.Context, f File, progress ProgressFunc) (*model.UploadResult, error) {
	name := UniqueFileName(u.now(), f.Name)
	attempt := 0

	b := retry.WithMaxRetries(1, retry.NewConstant(u.backoff))
	result, err := retry.DoValue(ctx, b, func(ctx context.Context) (*model.UploadResult, error) {
		attempt++
		if attempt > 1 {
			u.logger.InfoContext(ctx, "retrying upload with a fresh credential", "file", name, "attempt", attempt)
			if u.metrics != nil {
				u.metrics.UploadRetries.Inc()
			}
		}

		cred, err := u.credentials.Issue(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching upload credential: %w", err)
		}

		res, err := u.client.Upload(ctx, Request{
			Credential: cred,
			FileName:   name,
			Data:       f.Data,
			Folder:     f.Folder,
			Tags:       f.Tags,
		}, progress)
		if err != nil {
			if IsTokenError(err) {
				u.logger.WarnContext(ctx, "upload token rejected", "file", name, "attempt", attempt, "error", err)
				return nil, retry.RetryableError(err)
			}
			return nil, err
		}
		return res, nil
	})

	if u.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		} else {
			u.metrics.UploadBytes.Add(float64(len(f.Data)))
		}
		u.metrics.Uploads.WithLabelValues(status).Inc()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UniqueFileName prefixes a sanitized base name with a nanosecond timestamp
// so concurrent uploads never collide in the shared namespace.
func UniqueFileName(now time.Time, original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	clean := strings.TrimLeft(sb.String(), ".")
	if clean == "" {
		clean = "upload"
	}
	return strconv.FormatInt(now.UnixNano(), 10) + "-" + clean
}
