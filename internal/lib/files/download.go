package files

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cheggaaa/pb/v3"
	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/lib/version"
)

// DefaultRetries is the number of extra attempts made for a failed download.
const DefaultRetries = 3

var (
	retryInitialInterval = 1 * time.Second
	retryMaxInterval     = 15 * time.Second
	showProgress         = false
)

// SetShowProgress toggles the terminal progress bar for downloads.
func SetShowProgress(show bool) {
	showProgress = show
}

// DownloadOptions tunes a single download.
type DownloadOptions struct {
	// Headers are added to every request, e.g. Accept or Authorization.
	Headers map[string]string
	// Retries is the number of retries after the first attempt.
	// Zero means DefaultRetries, a negative value disables retrying.
	Retries int
}

// UserAgent is sent with every request made by the updater.
func UserAgent() string {
	return "selfupdate/" + version.VERSION
}

// Download fetches url into dest using the injected HTTP client.
func Download(ctx context.Context, url string, dest string, opts DownloadOptions) error {
	return DownloadWith(ctx, httpClient, url, dest, opts)
}

// DownloadWith fetches url into dest using client.
// Server errors and transport failures are retried with exponential backoff,
// any other non-200 status fails immediately.
func DownloadWith(ctx context.Context, client HTTPClient, url string, dest string, opts DownloadOptions) error {
	out, err := fileSystem.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "create %s", dest)
	}
	defer func() {
		if closeErr := fileSystem.Close(out); closeErr != nil {
			slog.Warn("failed to close output file", "path", dest, "error", closeErr)
		}
	}()

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			if _, err := out.Seek(0, io.SeekStart); err != nil {
				return backoff.Permanent(errors.Wrap(err, "rewind output file"))
			}
			if err := out.Truncate(0); err != nil {
				return backoff.Permanent(errors.Wrap(err, "truncate output file"))
			}
		}
		return downloadOnce(ctx, client, url, out, opts.Headers)
	}

	notify := func(err error, next time.Duration) {
		slog.Warn("download failed, retrying", "url", url, "attempt", attempt, "retry_in", next, "error", err)
	}

	if err := backoff.RetryNotify(operation, newBackOff(ctx, opts.Retries), notify); err != nil {
		return errors.Wrapf(err, "download %s", url)
	}
	return nil
}

func newBackOff(ctx context.Context, retries int) backoff.BackOff {
	if retries == 0 {
		retries = DefaultRetries
	}
	if retries < 0 {
		retries = 0
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     retryInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         retryMaxInterval,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func downloadOnce(ctx context.Context, client HTTPClient, url string, out io.Writer, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, "create request"))
	}
	req.Header.Set("User-Agent", UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Wrapf(ErrUnexpectedStatus, "%s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return backoff.Permanent(errors.Wrapf(ErrUnexpectedStatus, "%s", resp.Status))
	}

	var body io.Reader = resp.Body
	if showProgress && resp.ContentLength > 0 {
		bar := pb.Full.Start64(resp.ContentLength)
		bar.Set(pb.Bytes, true)
		bar.SetWriter(os.Stderr)
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	if _, err := io.Copy(out, body); err != nil {
		return errors.Wrap(err, "write body")
	}
	return nil
}
