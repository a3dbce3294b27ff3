// Package transform builds CDN transformation URLs for images stored either
// in the shared demo bucket or in the tenant's own bucket.
package transform

import (
	"errors"
	"net/url"
	"strings"

	"github.com/KSD554/imagekit/internal/model"
)

const (
	// DemoSegment marks a URL path as belonging to the shared bucket.
	DemoSegment = "demo"

	chainSeparator = ":"
	trPrefix       = "tr:"
)

// ErrInvalidURL is returned by Classify for URLs that are not absolute.
var ErrInvalidURL = errors.New("invalid image URL")

// Config holds the endpoint roots and the tenant account identifier.
type Config struct {
	DemoEndpoint   string
	TenantEndpoint string
	TenantID       string
}

// Builder maps a base image URL and a directive chain to a transformation URL.
// It performs no I/O and is safe for concurrent use.
type Builder struct {
	cfg Config
}

// NewBuilder creates a Builder.
func NewBuilder(cfg Config) *Builder {
	cfg.DemoEndpoint = strings.TrimRight(cfg.DemoEndpoint, "/")
	cfg.TenantEndpoint = strings.TrimRight(cfg.TenantEndpoint, "/")
	cfg.TenantID = strings.Trim(cfg.TenantID, "/")
	return &Builder{cfg: cfg}
}

// Build returns baseURL with the directives applied as a "tr:" path segment.
//
// baseURL is returned unchanged when it is empty, when no directive is
// given, when it cannot be parsed as an absolute URL, or when it has no
// asset path. An existing "tr:" segment is replaced, not nested.
func (b *Builder) Build(baseURL string, directives []model.Directive) string {
	if baseURL == "" {
		return baseURL
	}
	chain := Chain(directives)
	if chain == "" {
		return baseURL
	}

	u, err := parseAbsolute(baseURL)
	if err != nil {
		return baseURL
	}

	ref, root := b.classify(u)
	if ref.AssetPath == "" {
		return baseURL
	}

	var sb strings.Builder
	sb.WriteString(root)
	sb.WriteString("/" + trPrefix)
	sb.WriteString(chain)
	sb.WriteString("/")
	sb.WriteString(ref.AssetPath)
	if ref.Query != "" {
		sb.WriteString("?")
		sb.WriteString(ref.Query)
	}
	return sb.String()
}

// Classify resolves baseURL to its bucket layout and relative asset path.
func (b *Builder) Classify(baseURL string) (model.ImageReference, error) {
	u, err := parseAbsolute(baseURL)
	if err != nil {
		return model.ImageReference{}, err
	}
	ref, _ := b.classify(u)
	return ref, nil
}

// classify returns the reference and the endpoint root to build against.
func (b *Builder) classify(u *url.URL) (model.ImageReference, string) {
	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	origin := u.Scheme + "://" + u.Host

	for i, seg := range segments {
		if seg != DemoSegment {
			continue
		}
		root := b.cfg.DemoEndpoint
		if root == "" {
			root = origin + "/" + strings.Join(segments[:i+1], "/")
		}
		return model.ImageReference{
			Kind:      model.SharedBucket,
			AssetPath: assetPath(segments[i+1:]),
			Query:     u.RawQuery,
		}, root
	}

	if b.cfg.TenantID != "" && len(segments) > 0 && segments[0] == b.cfg.TenantID {
		segments = segments[1:]
	}
	root := b.cfg.TenantEndpoint
	if root == "" {
		root = origin
		if b.cfg.TenantID != "" {
			root += "/" + b.cfg.TenantID
		}
	}
	return model.ImageReference{
		Kind:      model.TenantBucket,
		AssetPath: assetPath(segments),
		Query:     u.RawQuery,
	}, root
}

// assetPath joins the remaining segments, dropping a leading "tr:" segment.
func assetPath(segments []string) string {
	if len(segments) > 0 && strings.HasPrefix(segments[0], trPrefix) {
		segments = segments[1:]
	}
	return strings.Join(segments, "/")
}

// Chain joins directives with the chain separator. Blank directives are
// dropped and commas inside a directive are kept.
func Chain(directives []model.Directive) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		d = strings.TrimPrefix(strings.TrimSpace(d), trPrefix)
		if d == "" {
			continue
		}
		parts = append(parts, d)
	}
	return strings.Join(parts, chainSeparator)
}

func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}
