package handler_test

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/KSD554/imagekit/internal/config"
	"github.com/KSD554/imagekit/internal/credential"
	"github.com/KSD554/imagekit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAuth(t *testing.T) {
	ts, _ := testServer(t, nil)

	before := time.Now()
	resp := get(t, ts.URL+"/api/upload-auth")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))

	var cred model.UploadCredential
	decodeResponse(t, resp, &cred)

	assert.NotEmpty(t, cred.Token)
	assert.Equal(t, testPublicKey, cred.PublicKey)
	assert.True(t, credential.Verify(testPrivateKey, cred.Token, cred.Expire, cred.Signature))
	assert.InDelta(t, before.Add(10*time.Minute).Unix(), cred.Expire, 2)
}

func TestUploadAuthIssuesDistinctCredentials(t *testing.T) {
	ts, _ := testServer(t, nil)

	seenTokens := map[string]bool{}
	seenExpires := map[int64]bool{}
	for i := 0; i < 5; i++ {
		var cred model.UploadCredential
		decodeResponse(t, get(t, ts.URL+"/api/upload-auth"), &cred)
		assert.False(t, seenTokens[cred.Token], "token repeated")
		assert.False(t, seenExpires[cred.Expire], "expire repeated")
		seenTokens[cred.Token] = true
		seenExpires[cred.Expire] = true
	}
}

func TestUploadAuthNotConfigured(t *testing.T) {
	ts, _ := testServer(t, func(cfg *config.Config) {
		cfg.PublicKey = ""
	})

	resp := get(t, ts.URL+"/api/upload-auth")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"Failed to generate upload authentication"}`, string(body))
	assert.False(t, strings.Contains(string(body), testPrivateKey))
}

func TestUploadAuthRateLimited(t *testing.T) {
	ts, _ := testServer(t, func(cfg *config.Config) {
		cfg.AuthRatePerSecond = 0.001
		cfg.AuthRateBurst = 2
	})

	for i := 0; i < 2; i++ {
		resp := get(t, ts.URL+"/api/upload-auth")
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := get(t, ts.URL+"/api/upload-auth")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := testServer(t, nil)

	var health map[string]string
	decodeResponse(t, get(t, ts.URL+"/health"), &health)
	assert.Equal(t, "ok", health["status"])

	get(t, ts.URL+"/api/upload-auth").Body.Close()

	resp := get(t, ts.URL+"/metrics")
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `imagekit_gateway_credentials_issued_total{status="ok"} 1`)
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ts, _ := testServer(t, nil)

	resp := get(t, ts.URL+"/api/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body errorBody
	decodeResponse(t, resp, &body)
	assert.Equal(t, "route not found", body.Error)
}
