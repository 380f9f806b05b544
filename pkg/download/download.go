// Package download fetches add-on installers over HTTP(S) with bounded
// retries. Several upstreams only publish over plain HTTP; the URL in the
// catalog is taken as-is.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultAttempts bounds the total tries per fetch.
	DefaultAttempts = 3

	// DefaultRetryDelay separates consecutive attempts.
	DefaultRetryDelay = 2 * time.Second

	// defaultTimeout bounds a single attempt; installers are small scripts.
	defaultTimeout = 60 * time.Second
)

// Options configures a fetch.
type Options struct {
	URL      string
	DestPath string

	// Client overrides the default HTTP client (used by tests).
	Client *http.Client

	// Attempts bounds total tries; 0 means DefaultAttempts.
	Attempts int

	// RetryDelay separates attempts; 0 means DefaultRetryDelay.
	RetryDelay time.Duration

	// OnAttempt is called before each try with the 1-based attempt number.
	OnAttempt func(attempt int)
}

// statusError reports a non-OK HTTP response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.code)
}

// Fetch downloads opts.URL to opts.DestPath, retrying transient failures
// up to the attempt limit. Data lands under a temp name and is renamed
// into place only after a complete download, so a partial fetch never
// shadows the destination. Installers are saved executable.
func Fetch(ctx context.Context, opts Options) error {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	attempt := 0
	operation := func() error {
		attempt++
		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt)
		}

		err := fetchOnce(ctx, client, opts.URL, opts.DestPath)
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("download of %s failed after %d attempt(s): %w", opts.URL, attempt, err)
	}
	return nil
}

// fetchOnce performs a single download attempt.
func fetchOnce(ctx context.Context, client *http.Client, srcURL, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmpPath := destPath + ".downloading"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	// Only keep the temp file once it has been renamed into place
	renamed := false
	defer func() {
		out.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %w", &statusError{code: resp.StatusCode})
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	// Close before rename
	out.Close()

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}
	renamed = true

	return nil
}

// shouldRetry reports whether a failed attempt is worth repeating.
// Connection failures, timeouts, and server-side statuses are transient;
// cancelled runs and client-side statuses are not. Timeouts surface as
// deadline errors too, so the overall deadline is left to the retry
// loop's context rather than classified here.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}

	return false
}
