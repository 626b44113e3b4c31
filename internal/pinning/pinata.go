// Package pinning forwards uploaded files to a content-addressed pinning
// service and builds the gateway URLs that resolve them.
package pinning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"coinpal/internal/config"
)

// Pinner stores a blob and returns its content identifier.
type Pinner interface {
	Pin(ctx context.Context, name string, r io.Reader) (string, error)
}

var (
	// ErrEmptyCID is returned when the service answered without a content id.
	ErrEmptyCID      = errors.New("pinning service returned no cid")
	ErrNotConfigured = errors.New("pinning service credentials are not configured")
)

// Disabled fails every pin with ErrNotConfigured.
var Disabled Pinner = disabled{}

type disabled struct{}

func (disabled) Pin(context.Context, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}

// PinataClient talks to the Pinata upload API.
type PinataClient struct {
	jwt       string
	uploadURL string
	network   string
	cidPath   string
	timeout   time.Duration
	http      *http.Client
}

// NewPinata builds a client from configuration. hc may be nil.
func NewPinata(cfg config.PinningConfig, hc *http.Client) *PinataClient {
	if hc == nil {
		hc = &http.Client{}
	}
	cidPath := cfg.CIDPath
	if cidPath == "" {
		cidPath = "$.data.cid"
	}
	return &PinataClient{
		jwt:       cfg.JWT,
		uploadURL: cfg.UploadURL,
		network:   cfg.Network,
		cidPath:   cidPath,
		timeout:   cfg.Timeout,
		http:      hc,
	}
}

// Pin streams r to the upload API as a multipart request.
func (c *PinataClient) Pin(ctx context.Context, name string, r io.Reader) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, name, c.network, r))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, pr)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("build pin request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.http.Do(req)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read pin response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pin %s: %s: %s", name, resp.Status, strings.TrimSpace(string(body)))
	}
	return extractCID(body, c.cidPath)
}

func writeForm(mw *multipart.Writer, name, network string, r io.Reader) error {
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	if network != "" {
		if err := mw.WriteField("network", network); err != nil {
			return err
		}
	}
	if err := mw.WriteField("name", name); err != nil {
		return err
	}
	return mw.Close()
}

// extractCID reads the content id at path, e.g. "$.data.cid" for the v3 API or
// "$.IpfsHash" for the legacy pinning API.
func extractCID(body []byte, path string) (string, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return "", fmt.Errorf("read cid at %q: %w", path, err)
	}
	if list, ok := val.([]interface{}); ok && len(list) > 0 {
		val = list[0]
	}
	cid, ok := val.(string)
	if !ok || strings.TrimSpace(cid) == "" {
		return "", ErrEmptyCID
	}
	return cid, nil
}
