// Package cloudinary uploads avatars to Cloudinary through its signed upload
// API and builds transformation delivery URLs.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/utafrali/contactsbook/internal/storage"
	"github.com/utafrali/contactsbook/pkg/httpclient"
)

const (
	defaultAPIURL      = "https://api.cloudinary.com"
	defaultDeliveryURL = "https://res.cloudinary.com"
)

// Config holds the account credentials.
type Config struct {
	CloudName   string
	APIKey      string
	APISecret   string
	APIURL      string
	DeliveryURL string
}

// Doer sends HTTP requests. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Storage implements storage.Storage on Cloudinary.
type Storage struct {
	cfg    Config
	client Doer
	now    func() time.Time
}

var _ storage.Storage = (*Storage)(nil)

// New creates a Cloudinary store whose uploads go through a retrying,
// circuit-broken client.
func New(cfg Config, logger *slog.Logger) *Storage {
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("cloudinary"),
		logger,
	)
	return NewWithClient(cfg, client)
}

// NewWithClient creates a store over client.
func NewWithClient(cfg Config, client Doer) *Storage {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.DeliveryURL == "" {
		cfg.DeliveryURL = defaultDeliveryURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.DeliveryURL = strings.TrimRight(cfg.DeliveryURL, "/")
	return &Storage{cfg: cfg, client: client, now: time.Now}
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	Version   int64  `json:"version"`
	SecureURL string `json:"secure_url"`
}

// Upload sends the image with public_id set to the key and overwrite on.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	params := map[string]string{
		"public_id": input.Key,
		"overwrite": "true",
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := mw.WriteField("api_key", s.cfg.APIKey); err != nil {
		return nil, fmt.Errorf("write field api_key: %w", err)
	}
	if err := mw.WriteField("signature", Sign(params, s.cfg.APISecret)); err != nil {
		return nil, fmt.Errorf("write field signature: %w", err)
	}
	part, err := mw.CreateFormFile("file", lastSegment(input.Key))
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, input.Data); err != nil {
		return nil, fmt.Errorf("copy file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", s.cfg.APIURL, s.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "cloudinary")
	}
	defer func() { _ = resp.Body.Close() }()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode cloudinary response: %w", err)
	}

	return &storage.UploadResult{
		Key:     out.PublicID,
		Version: strconv.FormatInt(out.Version, 10),
		URL:     out.SecureURL,
	}, nil
}

// BuildURL returns the delivery URL with the transformation path segment,
// for example .../image/upload/c_fill,h_250,w_250/v17/key.
func (s *Storage) BuildURL(key string, t storage.Transform) string {
	var parts []string
	if t.Crop != "" {
		parts = append(parts, "c_"+t.Crop)
	}
	if t.Height > 0 {
		parts = append(parts, "h_"+strconv.Itoa(t.Height))
	}
	if t.Width > 0 {
		parts = append(parts, "w_"+strconv.Itoa(t.Width))
	}

	u := fmt.Sprintf("%s/%s/image/upload", s.cfg.DeliveryURL, s.cfg.CloudName)
	if len(parts) > 0 {
		u += "/" + strings.Join(parts, ",")
	}
	if t.Version != "" {
		u += "/v" + t.Version
	}
	return u + "/" + key
}

// Sign computes the upload signature: SHA-1 over the alphabetically sorted
// k=v pairs joined by '&', followed by the API secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func lastSegment(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
