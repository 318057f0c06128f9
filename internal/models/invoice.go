package models

import (
	"encoding/json"
	"time"
)

// InvoiceStatus represents the processing status of an uploaded invoice.
type InvoiceStatus string

const (
	// InvoiceStatusPending is set at upload time, before any downstream parsing.
	InvoiceStatusPending InvoiceStatus = "pending"
)

// UnknownIssuer is stored in IssuingCompany until a parsing step fills it.
const UnknownIssuer = "Inconnue"

// DateLayout is the wire format of InvoiceDate.
const DateLayout = "2006-01-02"

// Invoice represents one uploaded billing document and its (possibly unextracted) metadata.
type Invoice struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	// UserID is the owner of this invoice
	UserID uint `gorm:"index;not null"`
	User   User `gorm:"foreignKey:UserID"`

	IssuingCompany string `gorm:"column:entreprise_emettrice;size:255;not null"`
	// FileName is the sanitized client filename, for display only.
	FileName string `gorm:"column:nom_fichier;size:255;not null"`
	// StorageKey is the generated blob key; never derived from client input.
	StorageKey string `gorm:"column:storage_key;size:255;uniqueIndex;not null"`

	// Filled by a downstream parsing step; null until then.
	Amount      *float64   `gorm:"column:montant;type:decimal(10,2)"`
	InvoiceDate *time.Time `gorm:"column:date_facture;type:date"`

	Status InvoiceStatus `gorm:"size:50;not null;default:'pending'"`

	ExtractedText   string `gorm:"column:texte_extrait;type:text"`
	ExtractionError string `gorm:"column:erreur_extraction;type:text"`

	Items []LineItem `gorm:"foreignKey:InvoiceID"`
}

// TableName keeps the historical table name.
func (Invoice) TableName() string {
	return "factures"
}

// invoiceJSON is the listing shape of an invoice.
type invoiceJSON struct {
	ID             uint          `json:"id"`
	IssuingCompany string        `json:"entreprise_emettrice"`
	FileName       string        `json:"nom_fichier"`
	Amount         *float64      `json:"montant"`
	InvoiceDate    *string       `json:"date_facture"`
	Status         InvoiceStatus `json:"status"`
}

// MarshalJSON renders the listing shape: montant as float or null, date_facture as YYYY-MM-DD or null.
func (i Invoice) MarshalJSON() ([]byte, error) {
	out := invoiceJSON{
		ID:             i.ID,
		IssuingCompany: i.IssuingCompany,
		FileName:       i.FileName,
		Amount:         i.Amount,
		Status:         i.Status,
	}
	if i.InvoiceDate != nil {
		d := i.InvoiceDate.Format(DateLayout)
		out.InvoiceDate = &d
	}
	return json.Marshal(out)
}

// LineItem is a line of an invoice. The table is read-only here: nothing in
// this service writes to it.
type LineItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	InvoiceID uint    `gorm:"column:facture_id;index;not null" json:"-"`
	Name      string  `gorm:"column:nom;size:255;not null" json:"nom"`
	Quantity  float64 `gorm:"column:quantite;type:decimal(10,3);not null;default:1" json:"quantite"`
	Price     float64 `gorm:"column:prix;type:decimal(10,2);not null" json:"prix"`
}

// TableName keeps the historical table name.
func (LineItem) TableName() string {
	return "articles"
}
