package core

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Placeholder values shown until the user saves a company profile.
const (
	DefaultCompanyName      = "Sua Empresa"
	DefaultCompanyAddress   = "Endereço da Empresa"
	DefaultCompanyWhatsApp  = "(00) 00000-0000"
	DefaultCompanyInstagram = "@suaempresa"
)

type (
	// LineItem is one row of the quote.
	LineItem struct {
		ID          string
		Quantity    decimal.Decimal
		Description string
		UnitPrice   decimal.Decimal
	}

	// LineItemPatch carries the fields of an item edit. Nil fields are left untouched.
	LineItemPatch struct {
		Quantity    *decimal.Decimal
		Description *string
		UnitPrice   *decimal.Decimal
	}

	// CompanyProfile is the company identity printed on every quote.
	CompanyProfile struct {
		Name      string
		Address   string
		WhatsApp  string
		Instagram string
		Logo      string // data: payload or image URL, empty for no logo
	}
)

var (
	ErrFieldTooLong = errors.New("field too long")
	ErrLogoTooLarge = errors.New("logo too large")
)

const (
	maxProfileFieldLen = 200
	// Firestore caps documents at 1 MiB; inline logos must leave room for the other fields.
	maxLogoBytes = 900 * 1024
)

// NewItemID returns a fresh line item identifier. IDs are ULIDs drawn from a
// process-wide monotonic source, so two calls never collide even within the
// same millisecond.
func NewItemID() string {
	return "item-" + ulid.Make().String()
}

// NewLineItem returns a manually added row: quantity 1, price 0, empty description.
func NewLineItem() LineItem {
	return LineItem{
		ID:        NewItemID(),
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.Zero,
	}
}

// Apply merges the non-nil fields of p into a copy of the item.
func (i LineItem) Apply(p LineItemPatch) LineItem {
	if p.Quantity != nil {
		i.Quantity = *p.Quantity
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.UnitPrice != nil {
		i.UnitPrice = *p.UnitPrice
	}
	return i
}

// IsEmpty reports whether the patch changes nothing.
func (p LineItemPatch) IsEmpty() bool {
	return p.Quantity == nil && p.Description == nil && p.UnitPrice == nil
}

// DefaultCompanyProfile returns the placeholder profile used before the first save.
func DefaultCompanyProfile() CompanyProfile {
	return CompanyProfile{
		Name:      DefaultCompanyName,
		Address:   DefaultCompanyAddress,
		WhatsApp:  DefaultCompanyWhatsApp,
		Instagram: DefaultCompanyInstagram,
	}
}

// Initial returns the first letter of the company name, used when there is no logo.
func (c CompanyProfile) Initial() string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

// LogoURL returns the logo reference rewritten into a directly fetchable form.
func (c CompanyProfile) LogoURL() string {
	return NormalizeLogo(c.Logo)
}

func (c CompanyProfile) Validate() error {
	for _, f := range []string{c.Name, c.Address, c.WhatsApp, c.Instagram} {
		if utf8.RuneCountInString(f) > maxProfileFieldLen {
			return ErrFieldTooLong
		}
	}
	if len(c.Logo) > maxLogoBytes {
		return ErrLogoTooLarge
	}
	return nil
}
