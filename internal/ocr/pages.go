package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"
)

// ErrNoPages is returned for PDFs without any page.
var ErrNoPages = errors.New("pdf has no pages")

// Rasterizer renders one page (1-based) of a PDF file to a PNG image.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, page int) ([]byte, error)
}

// Pdftoppm rasterizes pages with the poppler pdftoppm binary.
type Pdftoppm struct {
	// Binary defaults to "pdftoppm" looked up in PATH.
	Binary string
	DPI    int
}

func (p Pdftoppm) Rasterize(ctx context.Context, pdfPath string, page int) ([]byte, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 300
	}

	outDir, err := os.MkdirTemp("", "factures-page-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	n := strconv.Itoa(page)
	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, bin,
		"-f", n, "-l", n,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		pdfPath, prefix,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, strings.TrimSpace(stderr.String()))
	}
	return os.ReadFile(prefix + ".png")
}

// PageExtractor recognizes images directly and PDFs page by page.
type PageExtractor struct {
	engine     Engine
	raster     Rasterizer
	workers    int
	countPages func(path string) (int, error)
}

// NewPageExtractor returns an extractor that runs at most workers page
// recognitions at once.
func NewPageExtractor(engine Engine, raster Rasterizer, workers int) *PageExtractor {
	if workers < 1 {
		workers = 1
	}
	return &PageExtractor{
		engine:  engine,
		raster:  raster,
		workers: workers,
		countPages: func(path string) (int, error) {
			return api.PageCountFile(path)
		},
	}
}

func (e *PageExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	if !doc.IsPDF() {
		return e.engine.Recognize(ctx, doc.Data)
	}

	tmp, err := os.MkdirTemp("", "factures-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	pdfPath := filepath.Join(tmp, "document.pdf")
	if err := os.WriteFile(pdfPath, doc.Data, 0o600); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	count, err := e.countPages(pdfPath)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	if count == 0 {
		return "", ErrNoPages
	}

	texts := make([]string, count)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for i := range count {
		eg.Go(func() error {
			text, err := e.page(gctx, pdfPath, i+1)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}
	return strings.Join(texts, ""), nil
}

// page recognizes one PDF page. It runs on an errgroup goroutine, so a
// panicking engine is turned into an error here.
func (e *PageExtractor) page(ctx context.Context, pdfPath string, page int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: engine panic: %v", page, rec)
		}
	}()
	img, err := e.raster.Rasterize(ctx, pdfPath, page)
	if err != nil {
		return "", fmt.Errorf("rasterize page %d: %w", page, err)
	}
	text, err = e.engine.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("recognize page %d: %w", page, err)
	}
	return text, nil
}
