package translation_service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// Translator is the external detect/translate capability.
type Translator interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// myMemoryResponse is the subset of the /get response we read.
type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText   string `json:"translatedText"`
		DetectedLanguage string `json:"detectedLanguage"`
	} `json:"responseData"`
	DetectedLanguage *struct {
		Lang string `json:"lang"`
	} `json:"detectedLanguage"`
	ResponseStatus  json.RawMessage `json:"responseStatus"`
	ResponseDetails string          `json:"responseDetails"`
}

func (r *myMemoryResponse) status() int {
	raw := strings.Trim(string(r.ResponseStatus), `"`)
	if raw == "" {
		return 200
	}
	code, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return code
}

func (r *myMemoryResponse) detected() string {
	if r.DetectedLanguage != nil && r.DetectedLanguage.Lang != "" {
		return r.DetectedLanguage.Lang
	}
	return r.ResponseData.DetectedLanguage
}

// MyMemoryClient talks to the MyMemory translation API.
type MyMemoryClient struct {
	config  *Config
	http    *resty.Client
	limiter ratelimit.Limiter
}

// NewMyMemoryClient creates a rate-limited MyMemory client.
func NewMyMemoryClient(config *Config) (*MyMemoryClient, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json")

	return &MyMemoryClient{
		config:  config,
		http:    httpClient,
		limiter: ratelimit.New(config.RatePerSecond),
	}, nil
}

// Close releases the underlying HTTP client.
func (c *MyMemoryClient) Close() error {
	return c.http.Close()
}

// DetectLanguage asks MyMemory to auto-detect the source language.
func (c *MyMemoryClient) DetectLanguage(ctx context.Context, text string) (string, error) {
	res, err := c.get(ctx, text, "Autodetect|en")
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	lang := res.detected()
	if lang == "" {
		return "", fmt.Errorf("detect language: no language in response")
	}
	return lang, nil
}

// Translate translates text from source into target.
func (c *MyMemoryClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	res, err := c.get(ctx, text, source+"|"+target)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if res.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("translate: empty translation")
	}
	return res.ResponseData.TranslatedText, nil
}

func (c *MyMemoryClient) get(ctx context.Context, text, langpair string) (*myMemoryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.limiter.Take()
	// waiting for a slot may outlast the caller's deadline
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := map[string]string{
		"q":        text,
		"langpair": langpair,
	}
	if c.config.Email != "" {
		params["de"] = c.config.Email
	}

	var out myMemoryResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/get")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("HTTP %d: %s", res.StatusCode(), res.String())
	}
	if code := out.status(); code != 200 {
		return nil, fmt.Errorf("API status %d: %s", code, out.ResponseDetails)
	}
	return &out, nil
}
