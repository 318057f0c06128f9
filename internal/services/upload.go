package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/diewo77/factures-api/internal/intake"
	"github.com/diewo77/factures-api/internal/models"
	"github.com/diewo77/factures-api/internal/ocr"
	"github.com/diewo77/factures-api/internal/storage"
)

// UploadResult describes a stored invoice and what OCR made of it.
type UploadResult struct {
	InvoiceID uint
	File      intake.StoredFile
	OCR       ocr.Outcome
}

// UploadService runs the upload pipeline: store, extract, record.
type UploadService struct {
	intake    *intake.Service
	invoices  *InvoiceService
	extractor ocr.Extractor
	timeout   time.Duration
}

func NewUploadService(in *intake.Service, invoices *InvoiceService, extractor ocr.Extractor, timeout time.Duration) *UploadService {
	if extractor == nil {
		extractor = ocr.Noop{}
	}
	return &UploadService{intake: in, invoices: invoices, extractor: extractor, timeout: timeout}
}

// Upload stores the document, extracts its text and creates a pending invoice
// owned by userID. Extraction failures are recorded on the invoice, not returned.
func (s *UploadService) Upload(ctx context.Context, userID uint, filename string, r io.Reader) (UploadResult, error) {
	file, err := s.intake.Accept(ctx, filename, r)
	if err != nil {
		return UploadResult{}, err
	}
	logger := slog.With("user_id", userID, "key", file.Key)

	// Once the body is stored the upload runs to completion even if the
	// client goes away; OCR stays bounded by s.timeout.
	ctx = context.WithoutCancel(ctx)

	var outcome ocr.Outcome
	data, err := storage.ReadAll(ctx, s.intake.Store(), file.Key)
	if err != nil {
		outcome = ocr.Outcome{Err: fmt.Errorf("read stored document: %w", err)}
	} else {
		outcome = ocr.Run(ctx, s.extractor, ocr.Document{Name: file.Name, Ext: file.Ext, Data: data}, s.timeout)
	}

	id, err := s.invoices.Create(ctx, NewInvoice{
		UserID:          userID,
		IssuingCompany:  models.UnknownIssuer,
		FileName:        file.Name,
		StorageKey:      file.Key,
		ExtractedText:   outcome.Text,
		ExtractionError: outcome.ErrorMessage(),
	})
	if err != nil {
		logger.Error("failed to record invoice, discarding document", "error", err)
		s.intake.Discard(ctx, file)
		return UploadResult{}, fmt.Errorf("create invoice: %w", err)
	}

	logger.Info("invoice uploaded", "invoice_id", id, "ocr_failed", outcome.Failed())
	return UploadResult{InvoiceID: id, File: file, OCR: outcome}, nil
}
