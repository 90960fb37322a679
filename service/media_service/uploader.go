package media_service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"easychat-service/tool"

	"resty.dev/v3"
)

// Uploader stores an image on the external media host and returns its durable URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mime string) (string, error)
}

// CloudinaryUploader uploads through the Cloudinary signed upload API.
type CloudinaryUploader struct {
	config *Config
	http   *resty.Client
	now    func() time.Time
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewCloudinaryUploader creates an uploader with the given config.
func NewCloudinaryUploader(config *Config) (*CloudinaryUploader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid media config: %w", err)
	}
	return &CloudinaryUploader{
		config: config,
		http: resty.New().
			SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
			SetTimeout(config.Timeout),
		now: time.Now,
	}, nil
}

// Close releases the HTTP client.
func (u *CloudinaryUploader) Close() error {
	return u.http.Close()
}

// Upload sends the image as a data URI and returns secure_url.
func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, mime string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}
	params := map[string]string{
		"folder":    u.config.Folder,
		"timestamp": strconv.FormatInt(u.now().Unix(), 10),
	}
	form := map[string]string{
		"file":      tool.ToDataURL(mime, data),
		"api_key":   u.config.APIKey,
		"signature": Sign(params, u.config.APISecret),
	}
	for k, v := range params {
		form[k] = v
	}

	var out uploadResponse
	res, err := u.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		SetError(&out).
		Post("/v1_1/" + u.config.CloudName + "/image/upload")
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	if res.IsError() {
		msg := res.String()
		if out.Error != nil {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("upload failed: HTTP %d: %s", res.StatusCode(), msg)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("upload failed: no secure_url in response")
	}
	return out.SecureURL, nil
}

// Sign computes the Cloudinary request signature: sha1 over the sorted
// "k=v" pairs joined by "&", followed by the API secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

// InlineUploader keeps images inline as data URIs. Used when no media host is configured.
type InlineUploader struct{}

// Upload returns the data URI itself.
func (InlineUploader) Upload(ctx context.Context, data []byte, mime string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}
	return tool.ToDataURL(mime, data), nil
}
