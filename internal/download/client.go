// Package download handles HTTP fetches and verified file downloads.
package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/aayushdutt/mcinstall/internal/core"
)

const userAgent = "mcinstall/1.0 (github.com/aayushdutt/mcinstall)"

// Item is a single file to download
type Item struct {
	URL  string
	Path string // Local destination path
	SHA1 string // Expected SHA1 hash (optional)
	Size int64  // Expected size in bytes (optional)
}

// Options configures a Client
type Options struct {
	Timeout           time.Duration // Per request, including the body
	RetryMax          int
	RequestsPerSecond float64 // 0 disables rate limiting
	Logger            *log.Logger
}

// Client fetches documents and downloads files
type Client struct {
	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     *log.Logger

	downloadedBytes atomic.Int64
	downloadedFiles atomic.Int64
}

// NewClient creates a new download client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	// Create retryable client with sensible defaults
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = leveledLogger{logger.WithPrefix("http")}

	// Configure underlying transport
	retryClient.HTTPClient.Transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	retryClient.HTTPClient.Timeout = opts.Timeout

	c := &Client{
		http: retryClient,
		log:  logger,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// get performs a GET and returns the response when the status is 200.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return resp, nil
}

// FetchBytes GETs url and returns the body. Transport and status
// failures are core.KindFetchFailed.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, &core.Error{Kind: core.KindFetchFailed, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.Error{Kind: core.KindFetchFailed, URL: url, Err: fmt.Errorf("reading response: %w", err)}
	}
	return data, nil
}

// FetchJSON GETs url and decodes the body into v. A body that does not
// decode is returned as an unclassified error so callers can decide
// what a malformed document means for them.
func (c *Client) FetchJSON(ctx context.Context, url string, v any) error {
	data, err := c.FetchBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// Download fetches item.URL into item.Path, creating parent directories.
// The body is streamed to a temporary file next to the destination and
// checked against item.SHA1 before being renamed into place, so an
// interrupted or corrupt transfer never replaces the destination.
// Failures are core.KindDownloadFailed.
func (c *Client) Download(ctx context.Context, item Item) error {
	if err := c.download(ctx, item); err != nil {
		return &core.Error{Kind: core.KindDownloadFailed, URL: item.URL, Path: item.Path, Err: err}
	}
	c.downloadedFiles.Add(1)
	return nil
}

func (c *Client) download(ctx context.Context, item Item) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(item.Path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	c.log.Debug("downloading", "url", item.URL, "size", humanize.Bytes(uint64(max(item.Size, 0))))

	resp, err := c.get(ctx, item.URL)
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	// Create temp file
	tmpPath := item.Path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	hasher := sha1.New()
	writer := io.MultiWriter(f, hasher)

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := writer.Write(buf[:n]); writeErr != nil {
				f.Close()
				os.Remove(tmpPath)
				return fmt.Errorf("writing file: %w", writeErr)
			}
			c.downloadedBytes.Add(int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("reading response: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing file: %w", err)
	}

	// Verify hash
	if item.SHA1 != "" {
		hash := hex.EncodeToString(hasher.Sum(nil))
		if hash != strings.ToLower(item.SHA1) {
			os.Remove(tmpPath)
			return &core.Error{
				Kind: core.KindIntegrityCorrupted,
				Path: item.Path,
				Err:  fmt.Errorf("hash mismatch: expected %s, got %s", item.SHA1, hash),
			}
		}
	}

	// Move to final location
	if err := os.Rename(tmpPath, item.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}

// Stats is a snapshot of transfer counters
type Stats struct {
	Bytes int64
	Files int64
}

// Stats returns bytes and files transferred by this client so far
func (c *Client) Stats() Stats {
	return Stats{
		Bytes: c.downloadedBytes.Load(),
		Files: c.downloadedFiles.Load(),
	}
}

// FormatSpeed formats download speed for display
func FormatSpeed(bytesPerSec float64) string {
	if bytesPerSec < 0 {
		bytesPerSec = 0
	}
	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}

// leveledLogger adapts a charm logger to retryablehttp.LeveledLogger
type leveledLogger struct {
	l *log.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.l.Error(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	// retryablehttp logs every request at info; that is debug noise here.
	l.l.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.l.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.l.Warn(msg, keysAndValues...)
}
