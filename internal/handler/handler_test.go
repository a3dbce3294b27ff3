package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KSD554/imagekit/internal/cdntest"
	"github.com/KSD554/imagekit/internal/config"
	"github.com/KSD554/imagekit/internal/router"
	"github.com/stretchr/testify/require"
)

const (
	testPrivateKey = "private_test_key"
	testPublicKey  = "public_test_key"
)

// testConfig returns a config pointing uploads at cdn.
func testConfig(cdn *cdntest.Server) *config.Config {
	return &config.Config{
		PrivateKey:        testPrivateKey,
		PublicKey:         testPublicKey,
		TenantID:          "acct123",
		TenantEndpoint:    "https://cdn.example/acct123",
		DemoEndpoint:      "https://cdn.example/demo",
		UploadEndpoint:    cdn.URL,
		TokenTTL:          10 * time.Minute,
		RetryBackoff:      10 * time.Millisecond,
		MaxUploadMB:       1,
		AuthRatePerSecond: 100,
		AuthRateBurst:     100,
		AllowedOrigins:    []string{"*"},
	}
}

// testServer starts the full router against a fake CDN. mutate may adjust
// the config before the router is built.
func testServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *cdntest.Server) {
	t.Helper()

	cdn := cdntest.New(testPrivateKey)
	t.Cleanup(cdn.Close)

	cfg := testConfig(cdn)
	if mutate != nil {
		mutate(cfg)
	}

	srv := router.New(cfg, nil)
	ts := httptest.NewServer(srv.Router)
	t.Cleanup(ts.Close)
	return ts, cdn
}

// multipartFileBody builds a multipart request body with a file field and
// extra form values.
func multipartFileBody(t *testing.T, fileName string, content []byte, values map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// decodeResponse decodes the JSON body into the provided target.
func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), string(data))
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	return resp
}

// errorBody mirrors api.ErrorBody for assertions.
type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}
