package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aayushdutt/mcinstall/internal/core"
)

func newTestClient() *Client {
	return NewClient(Options{
		Timeout:  5 * time.Second,
		RetryMax: 0,
		Logger:   log.New(io.Discard),
	})
}

func sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

func TestDownload_SingleFile(t *testing.T) {
	content := []byte("Hello, World!")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "nested", "dir", "test.txt")

	c := newTestClient()
	if err := c.Download(context.Background(), Item{URL: server.URL, Path: destPath}); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("Reading downloaded file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("Content mismatch: got %q, want %q", data, content)
	}

	stats := c.Stats()
	if stats.Files != 1 || stats.Bytes != int64(len(content)) {
		t.Errorf("Stats = %+v, want 1 file and %d bytes", stats, len(content))
	}
}

func TestDownload_SHA1Validation(t *testing.T) {
	content := []byte("Test content for hashing")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "hashed.txt")

	err := newTestClient().Download(context.Background(), Item{
		URL:  server.URL,
		Path: destPath,
		SHA1: sha1Hex(content),
		Size: int64(len(content)),
	})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
}

func TestDownload_SHA1Mismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Test content"))
	}))
	defer server.Close()

	dir := t.TempDir()
	destPath := filepath.Join(dir, "bad_hash.txt")

	// A previous copy must survive a failed replacement.
	if err := os.WriteFile(destPath, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	err := newTestClient().Download(context.Background(), Item{
		URL:  server.URL,
		Path: destPath,
		SHA1: "0000000000000000000000000000000000000000",
	})
	if !errors.Is(err, core.ErrDownloadFailed) {
		t.Fatalf("Download = %v, want download failure", err)
	}
	if !errors.Is(err, core.ErrIntegrityCorrupted) {
		t.Errorf("cause should be an integrity failure: %v", err)
	}

	data, _ := os.ReadFile(destPath)
	if string(data) != "old" {
		t.Errorf("destination overwritten by corrupt download: %q", data)
	}
	if _, err := os.Stat(destPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestDownload_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "missing.jar")
	err := newTestClient().Download(context.Background(), Item{URL: server.URL, Path: destPath})
	if core.KindOf(err) != core.KindDownloadFailed {
		t.Fatalf("kind = %v, want download failed (%v)", core.KindOf(err), err)
	}
	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Error("no file should be created on HTTP error")
	}
}

func TestDownload_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	destPath := filepath.Join(t.TempDir(), "slow.bin")
	err := newTestClient().Download(ctx, Item{URL: server.URL, Path: destPath})
	if core.KindOf(err) != core.KindDownloadFailed {
		t.Fatalf("kind = %v, want download failed (%v)", core.KindOf(err), err)
	}
	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Error("interrupted download must not produce the destination file")
	}
	if _, statErr := os.Stat(destPath + ".tmp"); !os.IsNotExist(statErr) {
		t.Error("interrupted download left its temporary file")
	}
}

func TestFetchJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			w.Write([]byte(`{"id":"1.21.4"}`))
		case "/bad.json":
			w.Write([]byte(`{"id":`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := newTestClient()

	var doc struct {
		ID string `json:"id"`
	}
	if err := c.FetchJSON(context.Background(), server.URL+"/ok.json", &doc); err != nil {
		t.Fatalf("FetchJSON failed: %v", err)
	}
	if doc.ID != "1.21.4" {
		t.Errorf("id = %q", doc.ID)
	}

	err := c.FetchJSON(context.Background(), server.URL+"/bad.json", &doc)
	if err == nil || core.KindOf(err) != core.KindUnknown {
		t.Errorf("malformed body = %v, want unclassified decode error", err)
	}

	err = c.FetchJSON(context.Background(), server.URL+"/fail", &doc)
	if !errors.Is(err, core.ErrFetchFailed) {
		t.Errorf("server error = %v, want fetch failure", err)
	}
}

func TestClient_RateLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	c := NewClient(Options{RequestsPerSecond: 1, Logger: log.New(io.Discard)})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// The first request uses the burst; the second has to wait past the deadline.
	if _, err := c.FetchBytes(ctx, server.URL); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := c.FetchBytes(ctx, server.URL); err == nil {
		t.Error("second fetch should be held back by the limiter")
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		bps  float64
		want string
	}{
		{500, "500 B/s"},
		{1000, "1.0 kB/s"},
		{1500, "1.5 kB/s"},
		{-1, "0 B/s"},
	}

	for _, tt := range tests {
		if got := FormatSpeed(tt.bps); got != tt.want {
			t.Errorf("FormatSpeed(%v) = %q, want %q", tt.bps, got, tt.want)
		}
	}
}
