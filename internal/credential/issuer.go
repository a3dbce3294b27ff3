// Package credential issues signed, time-boxed authorizations for direct
// uploads to the CDN.
package credential

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/KSD554/imagekit/internal/model"
	"github.com/google/uuid"
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 30 * time.Minute

var (
	// ErrNotConfigured means a signing key is missing. Not retryable.
	ErrNotConfigured = errors.New("upload signing is not configured")
	// ErrSigning wraps a failure of the signing function.
	ErrSigning = errors.New("failed to sign upload credential")
)

// SignFunc computes the signature for a token and expiry.
type SignFunc func(privateKey, token string, expire int64) (string, error)

// Config holds the issuer's secrets and expiry window.
type Config struct {
	PrivateKey string
	PublicKey  string
	TTL        time.Duration
}

// Issuer produces UploadCredentials. The zero value is not usable; use New.
type Issuer struct {
	cfg      Config
	now      func() time.Time
	newToken func() string
	sign     SignFunc

	// lastExpire guarantees strictly increasing expiries across calls.
	lastExpire atomic.Int64
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithTokenGenerator replaces the random UUID token generator.
func WithTokenGenerator(gen func() string) Option {
	return func(i *Issuer) { i.newToken = gen }
}

// WithSigner replaces the HMAC-SHA1 signer.
func WithSigner(sign SignFunc) Option {
	return func(i *Issuer) { i.sign = sign }
}

// New creates an Issuer. Missing keys are reported by Issue, not here, so a
// misconfigured server still starts and answers with a 5xx.
func New(cfg Config, opts ...Option) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	i := &Issuer{
		cfg:      cfg,
		now:      time.Now,
		newToken: func() string { return uuid.New().String() },
		sign:     Sign,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// PublicKey returns the configured public key.
func (i *Issuer) PublicKey() string {
	return i.cfg.PublicKey
}

// Issue returns a fresh credential. Every call yields a new token and an
// expiry strictly greater than any previously issued one.
func (i *Issuer) Issue(ctx context.Context) (model.UploadCredential, error) {
	if err := ctx.Err(); err != nil {
		return model.UploadCredential{}, err
	}
	if i.cfg.PrivateKey == "" {
		return model.UploadCredential{}, fmt.Errorf("%w: private key is empty", ErrNotConfigured)
	}
	if i.cfg.PublicKey == "" {
		return model.UploadCredential{}, fmt.Errorf("%w: public key is empty", ErrNotConfigured)
	}

	expire := i.nextExpire()
	token := i.newToken()

	sig, err := i.sign(i.cfg.PrivateKey, token, expire)
	if err != nil {
		// err comes from the signer and may echo its inputs; keep only the kind.
		return model.UploadCredential{}, ErrSigning
	}

	return model.UploadCredential{
		Token:     token,
		Expire:    expire,
		Signature: sig,
		PublicKey: i.cfg.PublicKey,
	}, nil
}

func (i *Issuer) nextExpire() int64 {
	candidate := i.now().Add(i.cfg.TTL).Unix()
	for {
		last := i.lastExpire.Load()
		next := candidate
		if next <= last {
			next = last + 1
		}
		if i.lastExpire.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Sign is the CDN's upload signature: hex(HMAC-SHA1(privateKey, token+expire)).
func Sign(privateKey, token string, expire int64) (string, error) {
	if privateKey == "" {
		return "", ErrNotConfigured
	}
	mac := hmac.New(sha1.New, []byte(privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether sig is the valid signature of token and expire.
func Verify(privateKey, token string, expire int64, sig string) bool {
	want, err := Sign(privateKey, token, expire)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(sig))
}
