package news

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error kinds shared by providers, the archive and the summarizer. Callers
// match them with errors.Is; none of them is fatal to a pipeline run.
var (
	ErrFetchTimeout   = errors.New("fetch timed out")
	ErrFetchTransport = errors.New("fetch transport failure")
	ErrFetchParse     = errors.New("fetch response unparseable")
	ErrArchiveRead    = errors.New("archive read failed")
	ErrArchivePersist = errors.New("archive persist failed")
	ErrSummarization  = errors.New("summarization failed")
)

// MaxReasonLen caps diagnostic strings surfaced in run results.
const MaxReasonLen = 120

// ClassifyFetchError maps a transport-level error to ErrFetchTimeout or
// ErrFetchTransport. Errors already carrying a kind are returned unchanged.
func ClassifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrFetchTimeout) || errors.Is(err, ErrFetchTransport) || errors.Is(err, ErrFetchParse) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrFetchTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrFetchTransport, err)
}

// Reason renders err as a single-line diagnostic of at most MaxReasonLen runes.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	return truncateRunes(msg, MaxReasonLen)
}
