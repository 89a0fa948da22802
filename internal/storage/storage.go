// Package storage defines the image-hosting collaborator used for avatars.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// AvatarFolder prefixes every avatar key.
const AvatarFolder = "contacts_book_avatars"

// Storage uploads images and builds delivery URLs for them.
type Storage interface {
	// Upload stores the image under input.Key, overwriting any previous
	// upload with the same key.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// BuildURL returns the delivery URL of key with t applied.
	BuildURL(key string, t Transform) string
}

// UploadInput holds the parameters for uploading a file.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload. Version changes on
// every overwrite so delivery URLs bypass stale caches.
type UploadResult struct {
	Key     string
	Version string
	URL     string
}

// Transform describes how a delivered image is resized.
type Transform struct {
	Width   int
	Height  int
	Crop    string
	Version string
}

// AvatarTransform returns the 250x250 fill crop used for avatars.
func AvatarTransform(version string) Transform {
	return Transform{Width: 250, Height: 250, Crop: "fill", Version: version}
}

// AvatarKey derives the stable avatar key for email: the folder plus the
// first 12 hex characters of its SHA-256.
func AvatarKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return AvatarFolder + "/" + hex.EncodeToString(sum[:])[:12]
}
