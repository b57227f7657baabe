package quarantine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Scan waits for output after the scanner is killed.
const waitDelay = 2 * time.Second

// ErrScannerUnavailable is returned when no verdict could be obtained.
var ErrScannerUnavailable = errors.New("scanner unavailable")

// Verdict is the scanner's judgement on one file.
type Verdict struct {
	Infected bool
	// Report is the scanner output for infected files.
	Report string
}

// Scanner inspects a file on disk.
type Scanner interface {
	Scan(ctx context.Context, path string) (Verdict, error)
}

// ClamAV runs the clamscan command line scanner.
type ClamAV struct {
	binary string
}

// NewClamAV returns a scanner invoking binary, looked up on PATH when not absolute.
func NewClamAV(binary string) *ClamAV {
	return &ClamAV{binary: binary}
}

// Scan runs "clamscan --infected --no-summary path". Exit status 0 is clean,
// 1 is infected; anything else, including a missing binary or an expired
// context, wraps ErrScannerUnavailable.
func (c *ClamAV) Scan(ctx context.Context, path string) (Verdict, error) {
	bin, err := exec.LookPath(c.binary)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrScannerUnavailable, err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--infected", "--no-summary", path)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = waitDelay

	err = cmd.Run()
	if err == nil {
		return Verdict{}, nil
	}
	if ctx.Err() != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrScannerUnavailable, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return Verdict{Infected: true, Report: strings.TrimSpace(out.String())}, nil
	}
	return Verdict{}, fmt.Errorf("%w: %v: %s", ErrScannerUnavailable, err, strings.TrimSpace(out.String()))
}
