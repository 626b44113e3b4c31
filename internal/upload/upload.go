// Package upload stages a single file and sends it to the upload endpoint,
// recording the returned gateway URL in the shared upload state.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"coinpal/internal/apperr"
	"coinpal/internal/logger"
	"coinpal/internal/models"
	"coinpal/internal/notify"
	"coinpal/internal/uploadstate"
)

const (
	source     = "upload"
	uploadPath = "/api/upload"
	fileField  = "file"
)

var (
	ErrNoFileSelected = apperr.Wrap(apperr.InputMissing, errors.New("no file selected"))
	ErrUploadInFlight = apperr.Wrap(apperr.Busy, errors.New("upload already in progress"))
	ErrUploadFailed   = errors.New("upload failed")
)

// FilePoster sends a multipart request with a single file part.
type FilePoster interface {
	PostFile(ctx context.Context, path, field, filename string, r io.Reader) ([]byte, error)
}

type Option func(*Client)

func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = notify.OrDiscard(n) }
}

// Client is the upload component. It holds at most one staged file.
type Client struct {
	backend  FilePoster
	state    *uploadstate.State
	notifier notify.Notifier

	mu        sync.Mutex
	staged    *models.UploadRecord
	uploading bool
}

// New binds the client to the upload state provided by ctx.
func New(ctx context.Context, backend FilePoster, opts ...Option) (*Client, error) {
	state, err := uploadstate.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	c := &Client{backend: backend, state: state, notifier: notify.Discard}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Select stages the contents of r under name, replacing any staged file.
func (c *Client) Select(name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	c.mu.Lock()
	c.staged = &models.UploadRecord{FileName: name, Data: data}
	c.mu.Unlock()
	return nil
}

func (c *Client) SelectFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.Wrap(apperr.InputMissing, err)
	}
	defer f.Close()
	return c.Select(filepath.Base(path), f)
}

// Staged returns a copy of the staged record, or nil.
func (c *Client) Staged() *models.UploadRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staged == nil {
		return nil
	}
	rec := *c.staged
	return &rec
}

func (c *Client) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// Submit uploads the staged file and stores the returned URL in the shared
// state. Only one submit may run at a time.
func (c *Client) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.staged == nil {
		c.mu.Unlock()
		c.notify(notify.LevelError, "Please select a file")
		return "", ErrNoFileSelected
	}
	if c.uploading {
		c.mu.Unlock()
		return "", ErrUploadInFlight
	}
	c.uploading = true
	rec := c.staged
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.uploading = false
		c.mu.Unlock()
	}()

	url, err := c.send(ctx, rec)
	if err != nil {
		logger.WithFields(logger.Fields{"file": rec.FileName}).Warnf("upload failed: %v", err)
		c.notify(notify.LevelError, "Error uploading file")
		return "", err
	}
	if err := c.state.Set(ctx, url); err != nil {
		c.notify(notify.LevelError, "Error uploading file")
		return "", apperr.Wrap(apperr.Internal, err)
	}

	c.mu.Lock()
	if c.staged == rec {
		c.staged = &models.UploadRecord{FileName: rec.FileName, Data: rec.Data, DerivedURL: url}
	}
	c.mu.Unlock()

	c.notify(notify.LevelSuccess, "File uploaded successfully")
	return url, nil
}

func (c *Client) send(ctx context.Context, rec *models.UploadRecord) (string, error) {
	body, err := c.backend.PostFile(ctx, uploadPath, fileField, rec.FileName, bytes.NewReader(rec.Data))
	if err != nil {
		return "", apperr.Wrap(apperr.TransportFailure, fmt.Errorf("%w: %w", ErrUploadFailed, err))
	}
	var resp models.UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperr.Wrap(apperr.TransportFailure, fmt.Errorf("%w: decode response: %w", ErrUploadFailed, err))
	}
	if resp.URL == "" {
		return "", apperr.Wrap(apperr.TransportFailure, fmt.Errorf("%w: response carried no url", ErrUploadFailed))
	}
	return resp.URL, nil
}

func (c *Client) notify(level notify.Level, msg string) {
	c.notifier.Notify(notify.Notification{Level: level, Source: source, Message: msg})
}
