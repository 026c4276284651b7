// Package uploader resolves a freshly saved image to its public URL.
// It tries to push the file to the remote web host and falls back to
// the host's assumed /uploads path when the push fails. Resolve never
// returns an error: every failure mode degrades into a usable Outcome.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds the remote upload attempt
const DefaultTimeout = 30 * time.Second

// Outcome is the result of one upload resolution. PublicURL is always
// populated: the remote-provided URL on success, the assumed default
// URL otherwise. Err carries transport error detail only; an ambiguous
// remote response (non-JSON, missing fields) leaves it empty.
type Outcome struct {
	RemoteSucceeded bool
	PublicURL       string
	Err             string
}

// hostResponse is the JSON body the remote upload endpoint returns
type hostResponse struct {
	Success bool   `json:"success"`
	FileURL string `json:"file_url"`
}

// Resolver uploads images to the remote host
type Resolver struct {
	host   string // normalized base URL, no trailing slash
	client *http.Client
	logger zerolog.Logger
}

// New creates a resolver for the given host base URL. The URL is
// normalized first, so "localhost/my_shop" and
// "http://localhost/my_shop/" configure the same resolver.
func New(hostURL string, timeout time.Duration, logger zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Resolver{
		host:   NormalizeHostURL(hostURL),
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "uploader").Logger(),
	}
}

// Host returns the normalized host base URL
func (r *Resolver) Host() string {
	return r.host
}

// DefaultPublicURL returns the deterministic URL the image would have
// if it lives in the host's uploads folder. It does not depend on
// whether the remote upload succeeds.
func (r *Resolver) DefaultPublicURL(filename string) string {
	return fmt.Sprintf("%s/uploads/%s", r.host, filename)
}

// Resolve attempts to transfer the local file to the remote host and
// classifies the result. The returned Outcome always carries a usable
// PublicURL, possibly the unverified default one.
func (r *Resolver) Resolve(ctx context.Context, localPath string, filename string) Outcome {
	outcome := Outcome{
		PublicURL: r.DefaultPublicURL(filename),
	}

	body, contentType, err := buildMultipart(localPath, filename)
	if err != nil {
		outcome.Err = err.Error()
		r.logger.Warn().Err(err).Str("path", localPath).Msg("Failed to read image for upload")
		return outcome
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.host+"/home.php", body)
	if err != nil {
		outcome.Err = err.Error()
		return outcome
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		outcome.Err = err.Error()
		r.logger.Warn().Err(err).Str("host", r.host).Msg("Remote upload failed, using local fallback")
		return outcome
	}
	defer resp.Body.Close()

	// Non-2xx/3xx and malformed bodies both fall back silently: the
	// host answered, so there is no transport detail worth keeping.
	if resp.StatusCode >= 400 {
		r.logger.Warn().Int("status", resp.StatusCode).Msg("Remote upload rejected, using local fallback")
		return outcome
	}

	var hr hostResponse
	if err := json.NewDecoder(resp.Body).Decode(&hr); err != nil {
		r.logger.Debug().Err(err).Msg("Remote upload response is not JSON, using local fallback")
		return outcome
	}

	if !hr.Success || hr.FileURL == "" {
		r.logger.Debug().Msg("Remote upload response missing success/file_url, using local fallback")
		return outcome
	}

	outcome.RemoteSucceeded = true
	outcome.PublicURL = hr.FileURL

	r.logger.Info().Str("url", hr.FileURL).Msg("Image uploaded to remote host")
	return outcome
}

// buildMultipart reads the file and packages it as a multipart form
// with a single "image" field, the shape home.php expects
func buildMultipart(localPath string, filename string) (io.Reader, string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// NormalizeHostURL reduces a configured host URL to scheme://host/path
// with no trailing slash. Inputs without a scheme ("localhost/my_shop")
// get http. Query strings and fragments are dropped.
func NormalizeHostURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		// Last resort: split host/path by hand
		parts := strings.SplitN(raw, "/", 2)
		clean := "http://" + parts[0]
		if len(parts) > 1 && parts[1] != "" {
			clean += "/" + strings.TrimRight(parts[1], "/")
		}
		return clean
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}

	path := strings.TrimRight(u.Path, "/")
	return scheme + "://" + u.Host + path
}
