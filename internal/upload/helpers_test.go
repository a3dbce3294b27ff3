package upload

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KSD554/imagekit/internal/cdntest"
	"github.com/KSD554/imagekit/internal/credential"
	"github.com/KSD554/imagekit/internal/model"
)

const (
	testPrivate = "private_test_key"
	testPublic  = "public_test_key"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	return cdntest.PNG()
}

func newFakeCDN(t *testing.T) *cdntest.Server {
	t.Helper()
	cdn := cdntest.New(testPrivate)
	t.Cleanup(cdn.Close)
	return cdn
}

// countingSource wraps a credential issuer and counts Issue calls.
type countingSource struct {
	mu     sync.Mutex
	inner  CredentialSource
	calls  int
	tokens []string
}

func (c *countingSource) Issue(ctx context.Context) (model.UploadCredential, error) {
	cred, err := c.inner.Issue(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.tokens = append(c.tokens, cred.Token)
	return cred, err
}

func (c *countingSource) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newIssuer() *credential.Issuer {
	return credential.New(credential.Config{PrivateKey: testPrivate, PublicKey: testPublic, TTL: 10 * time.Minute})
}
