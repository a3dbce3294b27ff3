package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/KSD554/imagekit/internal/model"
)

// RemoteCredentials fetches credentials from a credential endpoint.
type RemoteCredentials struct {
	httpClient *http.Client
	endpoint   string
	now        func() time.Time
}

// NewRemoteCredentials creates a source for the given endpoint URL, e.g.
// "http://localhost:8080/api/upload-auth".
func NewRemoteCredentials(endpoint string, hc *http.Client) *RemoteCredentials {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &RemoteCredentials{httpClient: hc, endpoint: endpoint, now: time.Now}
}

// Issue performs one GET against the endpoint. A cache-busting query
// parameter keeps intermediaries from replaying an older credential.
func (rc *RemoteCredentials) Issue(ctx context.Context) (model.UploadCredential, error) {
	u, err := url.Parse(rc.endpoint)
	if err != nil {
		return model.UploadCredential{}, fmt.Errorf("parsing credential endpoint: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(rc.now().UnixNano(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.UploadCredential{}, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return model.UploadCredential{}, fmt.Errorf("requesting credential: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return model.UploadCredential{}, fmt.Errorf("reading credential response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			msg = body.Error
		}
		return model.UploadCredential{}, fmt.Errorf("credential endpoint returned %d: %s", resp.StatusCode, msg)
	}

	var cred model.UploadCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return model.UploadCredential{}, fmt.Errorf("decoding credential: %w", err)
	}
	if cred.Token == "" || cred.Signature == "" || cred.Expire == 0 {
		return model.UploadCredential{}, errors.New("credential endpoint returned an incomplete credential")
	}
	return cred, nil
}
