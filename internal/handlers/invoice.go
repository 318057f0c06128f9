package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/factures-api/auth"
	"github.com/diewo77/factures-api/httpx"
	"github.com/diewo77/factures-api/i18n"
	"github.com/diewo77/factures-api/internal/intake"
	"github.com/diewo77/factures-api/internal/services"
)

const (
	msgUploaded          = "uploaded"
	msgNoFile            = "no_file"
	msgInvalidFilename   = "invalid_filename"
	msgUnsupportedFormat = "unsupported_format"
	msgEmptyFile         = "empty_file"
	msgTooLarge          = "too_large"
	msgInvoiceNotFound   = "invoice_not_found"
	msgMissingToken      = "missing_token"

	// multipartOverhead leaves room for boundaries and headers around the file.
	multipartOverhead = 1 << 20
	// multipartMemory is kept in memory before parts spill to temp files.
	multipartMemory = 8 << 20
)

type uploadResponse struct {
	Message       string `json:"message"`
	InvoiceID     uint   `json:"facture_id"`
	ExtractedText string `json:"contenu_extrait"`
}

type InvoiceHandler struct {
	invoices *services.InvoiceService
	uploads  *services.UploadService
	maxBytes int64
}

// NewInvoiceHandler serves invoice routes. maxBytes bounds the uploaded file; <= 0 disables the limit.
func NewInvoiceHandler(invoices *services.InvoiceService, uploads *services.UploadService, maxBytes int64) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, uploads: uploads, maxBytes: maxBytes}
}

// Upload: POST /upload (multipart, field "file")
func (h *InvoiceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.Localized(w, r, http.StatusUnauthorized, msgMissingToken)
		return
	}
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Localized(w, r, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		httpx.Localized(w, r, http.StatusBadRequest, msgNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Localized(w, r, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	res, err := h.uploads.Upload(r.Context(), userID, header.Filename, file)
	if err != nil {
		status, msg := uploadErrorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("upload failed", "user_id", userID, "error", err)
		}
		httpx.Localized(w, r, status, msg)
		return
	}

	httpx.JSON(w, http.StatusCreated, uploadResponse{
		Message:       i18n.T(i18n.FromRequest(r), msgUploaded),
		InvoiceID:     res.InvoiceID,
		ExtractedText: res.OCR.Display(),
	})
}

func uploadErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, intake.ErrInvalidFilename):
		return http.StatusBadRequest, msgInvalidFilename
	case errors.Is(err, intake.ErrUnsupportedFormat):
		return http.StatusBadRequest, msgUnsupportedFormat
	case errors.Is(err, intake.ErrEmptyFile):
		return http.StatusBadRequest, msgEmptyFile
	case errors.Is(err, intake.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// List: GET /factures
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.Localized(w, r, http.StatusUnauthorized, msgMissingToken)
		return
	}
	invoices, err := h.invoices.ListForUser(r.Context(), userID)
	if err != nil {
		slog.Error("list invoices failed", "user_id", userID, "error", err)
		httpx.Localized(w, r, http.StatusInternalServerError, msgInternal)
		return
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

// Articles: GET /factures/{id}/articles
func (h *InvoiceHandler) Articles(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.Localized(w, r, http.StatusUnauthorized, msgMissingToken)
		return
	}
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.Localized(w, r, http.StatusNotFound, msgInvoiceNotFound)
		return
	}

	items, err := h.invoices.GetArticles(r.Context(), uint(id), userID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.Localized(w, r, http.StatusNotFound, msgInvoiceNotFound)
		return
	case err != nil:
		slog.Error("list articles failed", "invoice_id", id, "error", err)
		httpx.Localized(w, r, http.StatusInternalServerError, msgInternal)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}
