// Package ocr extracts plain text from invoice documents.
//
// Extraction is a soft dependency of the upload pipeline: Run never fails,
// it reports the outcome so the caller can store an invoice regardless.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// ErrTimeout is reported when an extraction exceeds its deadline.
var ErrTimeout = errors.New("ocr timed out")

// Document is the input of one extraction.
type Document struct {
	Name string
	// Ext is the lowercase extension without dot: pdf, png, jpg or jpeg.
	Ext  string
	Data []byte
}

// IsPDF reports whether the document must be split into pages.
func (d Document) IsPDF() bool { return d.Ext == "pdf" }

// Extractor turns a whole document into text.
type Extractor interface {
	Extract(ctx context.Context, doc Document) (string, error)
}

// Engine recognizes the text of a single encoded image (PNG or JPEG).
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Noop is the extractor used when no OCR capability is configured.
type Noop struct{}

func (Noop) Extract(context.Context, Document) (string, error) { return "", nil }

// Outcome is the result of a soft-failing extraction.
type Outcome struct {
	Text string
	Err  error
}

// Failed reports whether extraction did not produce text.
func (o Outcome) Failed() bool { return o.Err != nil }

// ErrorMessage returns a human readable failure, or "" on success.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return "Erreur OCR: " + o.Err.Error()
}

// Display is what clients see as the extracted content.
func (o Outcome) Display() string {
	if o.Err != nil {
		return o.ErrorMessage()
	}
	return o.Text
}

// Run calls ex with a deadline and converts every failure, panics included,
// into Outcome.Err. timeout <= 0 means no deadline beyond ctx.
func Run(ctx context.Context, ex Extractor, doc Document, timeout time.Duration) (out Outcome) {
	logger := slog.With("document", doc.Name, "ext", doc.Ext, "size", len(doc.Data))
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("ocr engine panicked", "panic", rec, "stack", string(debug.Stack()))
			out = Outcome{Err: fmt.Errorf("engine panic: %v", rec)}
		}
	}()

	text, err := ex.Extract(ctx, doc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
			if timeout > 0 {
				err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
			}
		}
		logger.Warn("ocr failed", "error", err, "duration", time.Since(start))
		return Outcome{Err: err}
	}
	logger.Info("ocr done", "chars", len(text), "duration", time.Since(start))
	return Outcome{Text: text}
}
