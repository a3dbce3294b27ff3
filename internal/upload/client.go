// Package upload sends files directly to the CDN using short-lived signed
// credentials.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KSD554/imagekit/internal/model"
	"github.com/gabriel-vasile/mimetype"
)

const (
	// DefaultEndpoint is the CDN's upload API.
	DefaultEndpoint = "https://upload.imagekit.io/api/v1/files/upload"

	defaultMaxBytes = 25 << 20
	maxResponseSize = 1 << 20
)

// ProgressFunc receives the fraction of the request body sent, in [0,1].
type ProgressFunc func(fraction float64)

// ClientConfig configures a Client.
type ClientConfig struct {
	Endpoint   string
	MaxBytes   int64
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs single upload attempts against the CDN.
type Client struct {
	httpClient *http.Client
	endpoint   string
	maxBytes   int64
	now        func() time.Time
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		hc = &http.Client{Timeout: timeout}
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Client{
		httpClient: hc,
		endpoint:   endpoint,
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// Request is one upload attempt.
type Request struct {
	Credential        model.UploadCredential
	FileName          string
	Data              []byte
	Folder            string
	Tags              []string
	UseUniqueFileName bool
}

// Upload sends req to the CDN. Empty, oversized and non-image payloads and
// expired credentials are rejected without a network round trip, in that
// order.
func (c *Client) Upload(ctx context.Context, req Request, progress ProgressFunc) (*model.UploadResult, error) {
	if err := c.precheck(req); err != nil {
		return nil, err
	}

	body, contentType, err := encodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("encoding upload request: %w", err)
	}

	total := int64(body.Len())
	var reader io.Reader = body
	if progress != nil {
		reader = &progressReader{r: body, total: total, fn: progress}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	httpReq.ContentLength = total
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending upload request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp.StatusCode, data)
	}

	var result model.UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if result.URL == "" {
		return nil, &Error{Kind: ErrRejected, StatusCode: resp.StatusCode, Message: "upload response missing URL"}
	}
	if progress != nil {
		progress(1)
	}
	return &result, nil
}

func (c *Client) precheck(req Request) error {
	if strings.TrimSpace(req.FileName) == "" {
		return &Error{Kind: ErrInvalidFile, Message: "file name is required"}
	}
	if len(req.Data) == 0 {
		return &Error{Kind: ErrInvalidFile, Message: "file is empty"}
	}
	if int64(len(req.Data)) > c.maxBytes {
		return &Error{Kind: ErrTooLarge, Message: fmt.Sprintf("%d bytes exceeds limit of %d", len(req.Data), c.maxBytes)}
	}
	if mt := mimetype.Detect(req.Data); !strings.HasPrefix(mt.String(), "image/") {
		return &Error{Kind: ErrInvalidFile, Message: "unsupported file type " + mt.String()}
	}
	// Checked last so a file problem is never reported as a token error.
	if req.Credential.Expired(c.now()) {
		return &Error{Kind: ErrTokenExpired, Message: "credential expired before upload"}
	}
	return nil
}

func encodeRequest(req Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"fileName", req.FileName},
		{"publicKey", req.Credential.PublicKey},
		{"signature", req.Credential.Signature},
		{"expire", strconv.FormatInt(req.Credential.Expire, 10)},
		{"token", req.Credential.Token},
		{"useUniqueFileName", strconv.FormatBool(req.UseUniqueFileName)},
	}
	if req.Folder != "" {
		fields = append(fields, [2]string{"folder", req.Folder})
	}
	if len(req.Tags) > 0 {
		fields = append(fields, [2]string{"tags", strings.Join(req.Tags, ",")})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	fw, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(req.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func responseError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Help    string `json:"help"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Kind: classify(status, msg), StatusCode: status, Message: msg}
}

// progressReader reports the fraction of bytes read so far.
type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.sent += int64(n)
		p.fn(float64(p.sent) / float64(p.total))
	}
	return n, err
}
