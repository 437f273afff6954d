// Package imagehost uploads listing images to the hosted media service and
// returns their public URLs.
package imagehost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/flatmarket/backend/internal/config"
	"github.com/flatmarket/backend/internal/domain"
)

// Client posts files to the media service's unsigned upload endpoint.
type Client struct {
	baseURL    string
	preset     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client from the upload config.
func NewClient(cfg config.UploadConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		preset:     cfg.UploadPreset,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("adapter", "imagehost"),
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
}

// Upload sends one file and returns its hosted URL. Failures come back as
// *domain.UploadError naming the file.
func (c *Client) Upload(ctx context.Context, file *domain.ImageFile) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", &domain.UploadError{Filename: file.Name, Err: fmt.Errorf("open: %w", err)}
	}
	defer src.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", file.Name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("upload_preset", c.preset); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, pr)
	if err != nil {
		return "", &domain.UploadError{Filename: file.Name, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "image upload failed",
			slog.String("file", file.Name),
			slog.String("error", err.Error()))
		return "", &domain.UploadError{Filename: file.Name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &domain.UploadError{Filename: file.Name, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		c.log.ErrorContext(ctx, "image upload rejected",
			slog.String("file", file.Name),
			slog.Int("status", resp.StatusCode))
		return "", &domain.UploadError{
			Filename: file.Name,
			Err:      fmt.Errorf("upload endpoint returned %d", resp.StatusCode),
		}
	}

	var ur uploadResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return "", &domain.UploadError{Filename: file.Name, Err: fmt.Errorf("decode response: %w", err)}
	}
	url := ur.SecureURL
	if url == "" {
		url = ur.URL
	}
	if url == "" {
		return "", &domain.UploadError{Filename: file.Name, Err: fmt.Errorf("response missing url")}
	}

	c.log.DebugContext(ctx, "image uploaded", slog.String("file", file.Name))
	return url, nil
}
