package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coinpal/internal/apperr"
)

func TestPostJSONSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"message":"hi"}` {
			t.Errorf("unexpected body %s", body)
		}
		_, _ = w.Write([]byte(`{"response":"hello"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	data, err := c.PostJSON(context.Background(), "/api/chat", map[string]string{"message": "hi"})
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if string(data) != `{"response":"hello"}` {
		t.Fatalf("unexpected response %s", data)
	}
}

func TestNon2xxIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"wallet not found"}`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL, 0).GetJSON(context.Background(), "/api/v1/portfolio/0x1/insights", &out)
	if !apperr.Is(err, apperr.TransportFailure) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.StatusCode != http.StatusNotFound || statusErr.Detail() != "wallet not found" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if !strings.Contains(err.Error(), "wallet not found") {
		t.Fatalf("detail missing from message: %v", err)
	}
}

func TestPostFileUsesMultipartField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "id.png" || string(data) != "bytes" {
			t.Errorf("unexpected upload %s %q", header.Filename, data)
		}
		_, _ = w.Write([]byte(`{"url":"ok"}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, 0).PostFile(context.Background(), "/api/upload", "file", "id.png", strings.NewReader("bytes")); err != nil {
		t.Fatalf("PostFile: %v", err)
	}
}

func TestTimeoutBoundsCall(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, 20*time.Millisecond).PostJSON(context.Background(), "/slow", struct{}{})
	if !apperr.Is(err, apperr.TransportFailure) {
		t.Fatalf("expected transport failure on timeout, got %v", err)
	}
}
