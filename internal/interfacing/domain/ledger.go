package interfacing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostingType is the ledger posting type. The set is open; the classification table decides the bucket.
type PostingType string

const (
	PostingClearing   PostingType = "Clearing"
	PostingInvoice    PostingType = "Invoice"
	PostingCreditNote PostingType = "CreditNote"
	PostingPayment    PostingType = "Payment"
)

// CountryStatus is the franchise lifecycle status of a country.
type CountryStatus string

const (
	CountryActive     CountryStatus = "active"
	CountryOnboarding CountryStatus = "onboarding"
	CountryInactive   CountryStatus = "inactive"
)

// ParseCountryStatus validates a status value.
func ParseCountryStatus(value string) (CountryStatus, error) {
	switch status := CountryStatus(value); status {
	case CountryActive, CountryOnboarding, CountryInactive:
		return status, nil
	}
	return "", ErrInvalidCountryStatus
}

// Country is a franchise country with its ledger account.
type Country struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	ISOCode   string        `json:"iso_code"`
	FIRCode   string        `json:"fir_code"`
	AccountID string        `json:"account_id"`
	Status    CountryStatus `json:"status"`
	Currency  string        `json:"currency"`
	// PayerName appears in the balance label; empty falls back to the configured payer.
	PayerName string `json:"payer_name,omitempty"`
}

// LedgerEntry is an imported ledger posting. Entries are read-only.
type LedgerEntry struct {
	ID          string
	AccountID   string
	Type        PostingType
	SubType     string
	PostingDate time.Time
	NetDueDate  *time.Time
	Amount      decimal.Decimal
	Description string
	Reference   string
}

// OpenItem is an open item carried over from the previous period.
type OpenItem struct {
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	NetDueDate  *time.Time      `json:"net_due_date"`
	Amount      decimal.Decimal `json:"amount"`
}

// Payer identifies the side that made a payment.
type Payer string

const (
	PayerSixt    Payer = "sixt"
	PayerPartner Payer = "partner"
)

// PaymentItem is a dated payment. Amounts keep their stored sign.
type PaymentItem struct {
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}
