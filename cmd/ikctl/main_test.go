package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/KSD554/imagekit/internal/cdntest"
	"github.com/KSD554/imagekit/internal/config"
	"github.com/KSD554/imagekit/internal/model"
	"github.com/KSD554/imagekit/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Setenv("IK_TENANT_ID", "acct123")
	t.Setenv("IK_URL_ENDPOINT", "https://cdn.example/acct123")
	t.Setenv("IK_DEMO_ENDPOINT", "https://cdn.example/demo")
	t.Setenv("IK_RETRY_BACKOFF", "10ms")
}

func TestRunURL(t *testing.T) {
	setTestEnv(t)

	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{
		"url", "-preset", "bg-removal", "https://cdn.example/demo/img/photo.jpg", "-tr", "e-dropshadow",
	}, &out, &errOut)
	require.NoError(t, err, errOut.String())
	assert.Equal(t, "https://cdn.example/demo/tr:e-bgremove:e-dropshadow/img/photo.jpg\n", out.String())
}

func TestRunURLErrors(t *testing.T) {
	setTestEnv(t)

	var out, errOut bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"url"}, &out, &errOut))
	assert.Error(t, run(context.Background(), []string{"url", "-preset", "nope", "https://cdn.example/a.jpg"}, &out, &errOut))
	assert.Error(t, run(context.Background(), []string{"bogus"}, &out, &errOut))
	assert.Error(t, run(context.Background(), nil, &out, &errOut))
}

// startStack runs the credential server and a fake CDN.
func startStack(t *testing.T) (*httptest.Server, *cdntest.Server) {
	t.Helper()
	cdn := cdntest.New("private_test_key")
	t.Cleanup(cdn.Close)

	t.Setenv("IK_UPLOAD_ENDPOINT", cdn.URL)

	cfg := &config.Config{
		PrivateKey:        "private_test_key",
		PublicKey:         "public_test_key",
		TenantID:          "acct123",
		TenantEndpoint:    "https://cdn.example/acct123",
		DemoEndpoint:      "https://cdn.example/demo",
		UploadEndpoint:    cdn.URL,
		TokenTTL:          config.MaxTokenTTL,
		RetryBackoff:      10 * time.Millisecond,
		MaxUploadMB:       1,
		AuthRatePerSecond: 100,
		AuthRateBurst:     100,
	}
	srv := httptest.NewServer(router.New(cfg, nil).Router)
	t.Cleanup(srv.Close)
	return srv, cdn
}

func TestRunAuth(t *testing.T) {
	setTestEnv(t)
	srv, _ := startStack(t)

	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"auth", "-server", srv.URL}, &out, &errOut))

	var cred model.UploadCredential
	require.NoError(t, json.Unmarshal(out.Bytes(), &cred))
	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, "public_test_key", cred.PublicKey)
}

func TestRunUpload(t *testing.T) {
	setTestEnv(t)
	srv, cdn := startStack(t)
	cdn.FailWith(http.StatusBadRequest, "The token has been used before")

	file := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(file, cdntest.PNG(), 0o600))

	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"upload", "-server", srv.URL, file, "-preset", "smart-crop"}, &out, &errOut)
	require.NoError(t, err, errOut.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, regexp.MustCompile(`^https://cdn\.example/acct123/\d+-cat\.png$`), lines[0])
	assert.Regexp(t, regexp.MustCompile(`^https://cdn\.example/acct123/tr:w-400,h-400,fo-auto/\d+-cat\.png$`), lines[1])
	assert.Contains(t, errOut.String(), "100%")
	assert.Equal(t, 2, cdn.Requests(), "one retry after the token error")
}
