package services

import (
	"context"
	"errors"

	"github.com/diewo77/factures-api/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("not_found")

// NewInvoice carries the fields known at upload time.
type NewInvoice struct {
	UserID          uint
	IssuingCompany  string
	FileName        string
	StorageKey      string
	ExtractedText   string
	ExtractionError string
}

type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// Create stores a pending invoice with no amount nor date.
func (s *InvoiceService) Create(ctx context.Context, in NewInvoice) (uint, error) {
	issuer := in.IssuingCompany
	if issuer == "" {
		issuer = models.UnknownIssuer
	}
	inv := models.Invoice{
		UserID:          in.UserID,
		IssuingCompany:  issuer,
		FileName:        in.FileName,
		StorageKey:      in.StorageKey,
		Status:          models.InvoiceStatusPending,
		ExtractedText:   in.ExtractedText,
		ExtractionError: in.ExtractionError,
	}
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return 0, err
	}
	return inv.ID, nil
}

// ListForUser returns the user's invoices ordered by id, never nil.
func (s *InvoiceService) ListForUser(ctx context.Context, userID uint) ([]models.Invoice, error) {
	invoices := make([]models.Invoice, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetArticles returns the line items of an invoice owned by userID.
// Missing and foreign invoices are indistinguishable (ErrNotFound).
func (s *InvoiceService) GetArticles(ctx context.Context, invoiceID, userID uint) ([]models.LineItem, error) {
	db := s.db.WithContext(ctx)

	var inv models.Invoice
	err := db.Select("id").Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items := make([]models.LineItem, 0)
	if err := db.Where("facture_id = ?", inv.ID).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
