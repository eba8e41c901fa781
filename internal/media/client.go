// Package media talks to the hosted image service that stores product
// pictures (Cloudinary-compatible upload and destroy endpoints).
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const DefaultAPIBase = "https://api.cloudinary.com"

var ErrNotConfigured = errors.New("media host not configured")

type Config struct {
	CloudName    string
	UploadPreset string
	APIBase      string
	Timeout      time.Duration
}

type UploadResult struct {
	URL         string `json:"url"`
	ReferenceID string `json:"referenceId"`
}

// Host is the capability set the catalog needs from the media service.
type Host interface {
	Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error)
	DeleteByReference(ctx context.Context, referenceID string) error
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/v1_1/%s/%s", strings.TrimRight(c.cfg.APIBase, "/"), c.cfg.CloudName, path)
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	if c.cfg.CloudName == "" {
		return UploadResult{}, ErrNotConfigured
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return UploadResult{}, fmt.Errorf("copy upload body: %w", err)
	}
	if err := mw.WriteField("upload_preset", c.cfg.UploadPreset); err != nil {
		return UploadResult{}, fmt.Errorf("write upload_preset: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload"), &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return UploadResult{}, fmt.Errorf("upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload response: %w", err)
	}
	if out.SecureURL == "" {
		return UploadResult{}, errors.New("upload: response missing secure_url")
	}
	return UploadResult{URL: out.SecureURL, ReferenceID: out.PublicID}, nil
}

type destroyRequest struct {
	PublicID     string `json:"public_id"`
	UploadPreset string `json:"upload_preset"`
}

func (c *Client) DeleteByReference(ctx context.Context, referenceID string) error {
	if c.cfg.CloudName == "" {
		return ErrNotConfigured
	}

	b, err := json.Marshal(destroyRequest{PublicID: referenceID, UploadPreset: c.cfg.UploadPreset})
	if err != nil {
		return fmt.Errorf("marshal destroy request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("image/destroy"), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("destroy %s: %w", referenceID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("destroy %s: status %d", referenceID, resp.StatusCode)
	}
	return nil
}
