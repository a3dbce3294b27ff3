package model

import "time"

// UploadCredential authorizes exactly one direct upload to the CDN.
type UploadCredential struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// ExpiresAt returns the expiry as a time.Time.
func (c UploadCredential) ExpiresAt() time.Time {
	return time.Unix(c.Expire, 0)
}

// Expired reports whether the credential is no longer usable at now.
func (c UploadCredential) Expired(now time.Time) bool {
	return now.Unix() >= c.Expire
}

// Directive is a single transformation code of the CDN, e.g. "e-bgremove"
// or "w-400,h-400,fo-auto".
type Directive = string

// ReferenceKind tells which storage layout an image URL belongs to.
type ReferenceKind string

const (
	// SharedBucket is the public demo namespace.
	SharedBucket ReferenceKind = "shared"
	// TenantBucket is the account's own namespace.
	TenantBucket ReferenceKind = "tenant"
)

// ImageReference is a base image URL resolved to its layout and the asset
// path relative to the bucket root.
type ImageReference struct {
	Kind      ReferenceKind
	AssetPath string
	Query     string
}

// TransformationOption is a catalogued transformation offered to users.
type TransformationOption struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Icon           string    `json:"icon"`
	Transformation Directive `json:"transformation"`
	Cost           int       `json:"cost"`
	Category       string    `json:"category"`
}

// DemoImage is a sample asset from the shared bucket.
type DemoImage struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// UploadResult is the CDN's description of a stored asset.
type UploadResult struct {
	FileID       string `json:"fileId"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	FilePath     string `json:"filePath,omitempty"`
	Size         int64  `json:"size,omitempty"`
	FileType     string `json:"fileType,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}
