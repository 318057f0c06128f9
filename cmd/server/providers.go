package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/diewo77/factures-api/internal/config"
	"github.com/diewo77/factures-api/internal/ocr"
	"github.com/diewo77/factures-api/internal/ocr/ocrspace"
	"github.com/diewo77/factures-api/internal/ocr/tesseract"
	"github.com/diewo77/factures-api/internal/storage"
)

// newStore returns the configured blob backend and a func releasing it.
func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, func(), error) {
	switch cfg.Backend {
	case "", "local":
		s, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("blob storage ready", "backend", "local", "dir", s.Dir())
		return s, func() {}, nil
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, nil, fmt.Errorf("GCS_BUCKET must be set when BLOB_BACKEND=gcs")
		}
		s, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.GCSCredentials)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("blob storage ready", "backend", "gcs", "bucket", cfg.GCSBucket, "prefix", cfg.GCSPrefix)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("closing gcs client", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.Backend)
	}
}

// newExtractor returns the configured OCR provider.
func newExtractor(cfg config.OCRConfig) (ocr.Extractor, error) {
	switch cfg.Provider {
	case "", "tesseract":
		engine := tesseract.New(cfg.Languages, cfg.PDFDPI)
		raster := ocr.Pdftoppm{DPI: cfg.PDFDPI}
		slog.Info("ocr ready", "provider", "tesseract", "languages", cfg.Languages, "page_workers", cfg.PageWorkers)
		return ocr.NewPageExtractor(engine, raster, cfg.PageWorkers), nil
	case "ocrspace":
		c, err := ocrspace.NewClient(cfg.SpaceURL, cfg.SpaceAPIKey, cfg.SpaceLanguage, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		slog.Info("ocr ready", "provider", "ocrspace", "language", cfg.SpaceLanguage)
		return c, nil
	case "none":
		slog.Warn("ocr disabled: uploads are stored without extracted text")
		return ocr.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown OCR_PROVIDER %q", cfg.Provider)
	}
}
