// Package memory is an in-process avatar store for development and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"

	"github.com/utafrali/contactsbook/internal/storage"
)

type fileEntry struct {
	ContentType string
	Data        []byte
	Version     int
}

// Storage implements storage.Storage using an in-memory map.
type Storage struct {
	mu      sync.RWMutex
	files   map[string]*fileEntry
	baseURL string
}

var _ storage.Storage = (*Storage)(nil)

// New creates a new in-memory storage serving URLs under baseURL.
func New(baseURL string) *Storage {
	return &Storage{
		files:   make(map[string]*fileEntry),
		baseURL: baseURL,
	}
}

// Upload reads the image into memory. Re-uploading a key bumps its version.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", input.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	version := 1
	if prev, ok := s.files[input.Key]; ok {
		version = prev.Version + 1
	}
	s.files[input.Key] = &fileEntry{ContentType: input.ContentType, Data: data, Version: version}

	v := strconv.Itoa(version)
	return &storage.UploadResult{
		Key:     input.Key,
		Version: v,
		URL:     fmt.Sprintf("%s/media/%s", s.baseURL, input.Key),
	}, nil
}

// BuildURL encodes t as query parameters; the memory store does not resize.
func (s *Storage) BuildURL(key string, t storage.Transform) string {
	q := url.Values{}
	if t.Width > 0 {
		q.Set("w", strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		q.Set("h", strconv.Itoa(t.Height))
	}
	if t.Crop != "" {
		q.Set("crop", t.Crop)
	}
	if t.Version != "" {
		q.Set("v", t.Version)
	}

	u := fmt.Sprintf("%s/media/%s", s.baseURL, key)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Open returns the stored bytes of key.
func (s *Storage) Open(key string) (io.Reader, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[key]
	if !ok {
		return nil, "", false
	}
	return bytes.NewReader(f.Data), f.ContentType, true
}
