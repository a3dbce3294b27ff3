package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUploadCredentialExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		expire  int64
		expired bool
	}{
		{"thirty seconds in the past", now.Unix() - 30, true},
		{"exactly now", now.Unix(), true},
		{"one second ahead", now.Unix() + 1, false},
		{"thirty minutes ahead", now.Add(30 * time.Minute).Unix(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := UploadCredential{Token: "t", Expire: tt.expire}
			assert.Equal(t, tt.expired, c.Expired(now))
		})
	}
}

func TestUploadCredentialExpiresAt(t *testing.T) {
	c := UploadCredential{Expire: 1_700_000_000}
	assert.Equal(t, int64(1_700_000_000), c.ExpiresAt().Unix())
}
