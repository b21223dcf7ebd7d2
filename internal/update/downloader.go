package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/adamancini/tuolauncher/internal/logging"
)

// chunkSize is the read buffer size, one progress report per chunk
const chunkSize = 81920

// HTTPDownloader streams release archives to temporary files
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
	log       *logrus.Entry
}

// DownloaderOption configures an HTTPDownloader
type DownloaderOption func(*HTTPDownloader)

// WithDownloadClient sets the HTTP client used for downloads
func WithDownloadClient(c *http.Client) DownloaderOption {
	return func(d *HTTPDownloader) {
		d.client = c
	}
}

// WithDownloadUserAgent sets the User-Agent header
func WithDownloadUserAgent(ua string) DownloaderOption {
	return func(d *HTTPDownloader) {
		d.userAgent = ua
	}
}

// WithDownloadLogger sets the logger
func WithDownloadLogger(l *logrus.Entry) DownloaderOption {
	return func(d *HTTPDownloader) {
		d.log = l
	}
}

// NewHTTPDownloader creates a new HTTP downloader
func NewHTTPDownloader(opts ...DownloaderOption) *HTTPDownloader {
	d := &HTTPDownloader{
		// No client timeout: archives are large and cancellation goes through ctx
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = logging.OrDiscard(d.log)
	return d
}

// Download is a completed or partial download held in a temporary file
type Download struct {
	URL      string
	TempPath string
	Bytes    int64
}

// Download streams url into a new temporary file in dir
//
// When the server sends a Content-Length, progress receives read/length after
// every chunk while below 1 and exactly 1.0 once at the end. Without a length
// progress is never called. On failure after the temporary file was created
// the returned *Download is non-nil so the caller can remove TempPath.
func (d *HTTPDownloader) Download(ctx context.Context, url, dir string, progress ProgressFunc) (*Download, error) {
	log := d.log.WithField("url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: "download", Err: err}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: classifyTransport(ctx, err), Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTPStatus, Op: "download", StatusCode: resp.StatusCode}
	}

	f, err := os.CreateTemp(dir, "tuo-download-*.zip")
	if err != nil {
		return nil, &Error{Kind: KindIO, Op: "download", Err: fmt.Errorf("failed to create temp file: %w", err)}
	}
	dl := &Download{URL: url, TempPath: f.Name()}

	length := resp.ContentLength
	report := func(read int64) {
		if progress == nil || length <= 0 {
			return
		}
		if frac := float64(read) / float64(length); frac < 1 {
			progress(frac)
		}
	}

	n, copyErr := copyChunks(ctx, f, resp.Body, report)
	dl.Bytes = n
	closeErr := f.Close()

	if copyErr != nil {
		log.WithError(copyErr).WithField("bytes", n).Warn("Download interrupted")
		return dl, copyErr
	}
	if closeErr != nil {
		return dl, &Error{Kind: KindIO, Op: "download", Err: fmt.Errorf("failed to close temp file: %w", closeErr)}
	}
	if length > 0 && n != length {
		return dl, &Error{Kind: KindNetwork, Op: "download", Err: fmt.Errorf("short body: got %d of %d bytes", n, length)}
	}

	if progress != nil && length > 0 {
		progress(1)
	}

	log.WithFields(logrus.Fields{"bytes": n, "path": dl.TempPath}).Debug("Download complete")
	return dl, nil
}

// copyChunks copies src to dst in chunkSize reads, honoring ctx between chunks
func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, report func(int64)) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, &Error{Kind: KindNetwork, Op: "download", Err: ctx.Err()}
		default:
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[:nr])
			if nw > 0 {
				written += int64(nw)
			}
			if writeErr != nil {
				return written, &Error{Kind: KindIO, Op: "download", Err: writeErr}
			}
			if nr != nw {
				return written, &Error{Kind: KindIO, Op: "download", Err: io.ErrShortWrite}
			}
			report(written)
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, &Error{Kind: classifyTransport(ctx, readErr), Op: "download", Err: readErr}
		}
	}
}

func classifyTransport(ctx context.Context, err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindNetwork
}

// Remove deletes the temporary file, ignoring a missing file
func (dl *Download) Remove() error {
	if dl == nil || dl.TempPath == "" {
		return nil
	}
	if err := os.Remove(dl.TempPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Commit moves the temporary file to dst, handling cross-device moves
func (dl *Download) Commit(dst string) error {
	if err := os.Rename(dl.TempPath, dst); err == nil {
		dl.TempPath = dst
		return nil
	}

	src, err := os.Open(dl.TempPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close file: %w", err)
	}

	src.Close()
	_ = os.Remove(dl.TempPath)
	dl.TempPath = dst
	return nil
}
