// Package quarantine downloads message attachments into an isolated
// directory and runs them through an external malware scanner.
package quarantine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/edgard/relaybot/internal/config"
	"github.com/edgard/relaybot/internal/database"
)

// State is a step of the fetch workflow.
type State string

const (
	StateNotFound           State = "NOT_FOUND"
	StateNoAttachment       State = "NO_ATTACHMENT"
	StateDownloadDisabled   State = "DOWNLOAD_DISABLED"
	StateDownloading        State = "DOWNLOADING"
	StateDownloaded         State = "DOWNLOADED"
	StateDownloadFailed     State = "DOWNLOAD_FAILED"
	StateScanning           State = "SCANNING"
	StateClean              State = "CLEAN"
	StateInfected           State = "INFECTED"
	StateScannerUnavailable State = "SCANNER_UNAVAILABLE"
)

const (
	dirMode      os.FileMode = 0o700
	fileMode     os.FileMode = 0o600
	infectedMode os.FileMode = 0o400
)

// ErrFileTooLarge is returned when a download exceeds the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Outcome is the final state of one fetch. Path and MIME are set once the
// file is on disk; Report carries the scanner output for infected files and
// Err the cause of a failed download or unavailable scanner.
type Outcome struct {
	MessageID int64
	State     State
	Path      string
	MIME      string
	Report    string
	Err       error
}

// Downloaded reports whether the attachment reached the quarantine dir.
func (o Outcome) Downloaded() bool {
	return o.Path != ""
}

// MessageGetter loads stored messages by id.
type MessageGetter interface {
	GetMessage(ctx context.Context, id int64) (*database.Message, error)
}

// Downloader streams a platform-hosted file into dest.
type Downloader interface {
	Download(ctx context.Context, fileID string, dest io.Writer) (int64, error)
}

// Pipeline implements the fetch workflow.
type Pipeline struct {
	cfg        config.QuarantineConfig
	messages   MessageGetter
	downloader Downloader
	scanner    Scanner
	logger     *slog.Logger
}

// NewPipeline returns a Pipeline. A nil scanner always reports unavailable.
func NewPipeline(cfg config.QuarantineConfig, messages MessageGetter, downloader Downloader, scanner Scanner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		cfg:        cfg,
		messages:   messages,
		downloader: downloader,
		scanner:    scanner,
		logger:     logger.With("component", "quarantine"),
	}
}

// Fetch downloads the attachment of messageID, detects its type and scans
// it. The returned error is reserved for store failures; every other result
// is described by the Outcome state.
func (p *Pipeline) Fetch(ctx context.Context, messageID int64) (Outcome, error) {
	out := Outcome{MessageID: messageID}
	log := p.logger.With("message_id", messageID)

	msg, err := p.messages.GetMessage(ctx, messageID)
	if err != nil {
		return out, fmt.Errorf("failed to load message %d: %w", messageID, err)
	}
	switch {
	case msg == nil:
		out.State = StateNotFound
		return out, nil
	case !msg.HasAttachment():
		out.State = StateNoAttachment
		return out, nil
	case !p.cfg.AllowDownload:
		out.State = StateDownloadDisabled
		return out, nil
	}

	out.State = StateDownloading
	path := filepath.Join(p.cfg.Dir, FileName(messageID, msg.Kind.String, msg.Filename.String))
	log.InfoContext(ctx, "Downloading attachment to quarantine", "path", path, "kind", msg.Kind.String)

	size, err := p.download(ctx, msg.FileID.String, path)
	if err != nil {
		log.ErrorContext(ctx, "Quarantine download failed", "error", err)
		out.State = StateDownloadFailed
		out.Err = err
		return out, nil
	}
	out.State = StateDownloaded
	out.Path = path
	out.MIME = detectMIME(path)
	log.InfoContext(ctx, "Attachment quarantined", "path", path, "bytes", size, "mime", out.MIME)

	out.State = StateScanning
	verdict, err := p.scan(ctx, path)
	switch {
	case err != nil:
		log.WarnContext(ctx, "Scanner unavailable", "error", err)
		out.State = StateScannerUnavailable
		out.Err = err
	case verdict.Infected:
		log.WarnContext(ctx, "Quarantined file flagged as infected", "path", path)
		out.State = StateInfected
		out.Report = verdict.Report
		if err := os.Chmod(path, infectedMode); err != nil {
			log.ErrorContext(ctx, "Failed to restrict infected file", "error", err)
		}
	default:
		out.State = StateClean
	}
	return out, nil
}

func (p *Pipeline) scan(ctx context.Context, path string) (Verdict, error) {
	if p.scanner == nil {
		return Verdict{}, ErrScannerUnavailable
	}
	ctx, cancel := withTimeout(ctx, p.cfg.ScanTimeout)
	defer cancel()
	return p.scanner.Scan(ctx, path)
}

// download writes the file to path via a temporary ".part" file so a
// partial download never appears under the final name.
func (p *Pipeline) download(ctx context.Context, fileID, path string) (int64, error) {
	if err := p.ensureDir(ctx); err != nil {
		return 0, err
	}

	ctx, cancel := withTimeout(ctx, p.cfg.DownloadTimeout)
	defer cancel()

	part := path + ".part"
	f, err := os.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fileMode)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", part, err)
	}

	size, err := p.downloader.Download(ctx, fileID, &cappedWriter{w: f, limit: p.cfg.MaxFileSize})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(part); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			p.logger.WarnContext(ctx, "Failed to remove partial download", "path", part, "error", rmErr)
		}
		return 0, err
	}

	if err := os.Rename(part, path); err != nil {
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}
	return size, nil
}

// ensureDir creates the quarantine dir with dirMode. An existing dir is used
// as is; group or world access on it is only reported.
func (p *Pipeline) ensureDir(ctx context.Context) error {
	info, err := os.Stat(p.cfg.Dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("quarantine path %s is not a directory", p.cfg.Dir)
		}
		if info.Mode().Perm()&0o077 != 0 {
			p.logger.WarnContext(ctx, "Quarantine dir is accessible to other users", "path", p.cfg.Dir, "mode", info.Mode().Perm())
		}
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("failed to stat quarantine dir: %w", err)
	}

	if err := os.MkdirAll(p.cfg.Dir, dirMode); err != nil {
		return fmt.Errorf("failed to create quarantine dir: %w", err)
	}
	// MkdirAll is subject to the umask.
	if err := os.Chmod(p.cfg.Dir, dirMode); err != nil {
		return fmt.Errorf("failed to restrict quarantine dir: %w", err)
	}
	return nil
}

func detectMIME(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// cappedWriter fails writes that would take the total past limit.
// A zero limit disables the check.
type cappedWriter struct {
	w       io.Writer
	limit   int64
	written int64
}

func (c *cappedWriter) Write(b []byte) (int, error) {
	if c.limit > 0 && c.written+int64(len(b)) > c.limit {
		return 0, ErrFileTooLarge
	}
	n, err := c.w.Write(b)
	c.written += int64(n)
	return n, err
}
