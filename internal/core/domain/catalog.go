package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	ModuleActive   = "Active"
	ModuleInactive = "Inactive"
)

// LoanModule is a loan programme, e.g. "Personal Loan".
type LoanModule struct {
	ID          string    `json:"id" bson:"_id"`
	Slug        string    `json:"slug" bson:"slug"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Status      string    `json:"status" bson:"status"`
	Logo        string    `json:"logo,omitempty" bson:"logo,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Product is a concrete offering inside a module.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	ModuleID    string    `json:"module_id" bson:"module_id"`
	Slug        string    `json:"slug" bson:"slug"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	MinimumLoan float64   `json:"minimum_loan" bson:"minimum_loan"`
	MaximumLoan float64   `json:"maximum_loan" bson:"maximum_loan"`
	Rates       []float64 `json:"rate" bson:"rate"`
	TenureYears int       `json:"tenure" bson:"tenure"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate enforces the product rules checked at creation.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return Invalid("product name is required")
	}
	if p.MinimumLoan < 0 {
		return Invalid("minimum_loan must not be negative")
	}
	if p.MaximumLoan <= p.MinimumLoan {
		return Invalid("maximum_loan must be greater than minimum_loan")
	}
	if len(p.Rates) == 0 {
		return Invalid("at least one rate is required")
	}
	for _, r := range p.Rates {
		if r < 0 {
			return Invalid("rates must not be negative")
		}
	}
	if p.TenureYears <= 0 {
		return Invalid("tenure must be a positive number of years")
	}
	return nil
}

// RateRange renders the spread of every rate offered by products, e.g.
// "3.50% - 4.25%", or "N/A" when none are set.
func RateRange(products []*Product) string {
	var lo, hi float64
	found := false
	for _, p := range products {
		for _, r := range p.Rates {
			if !found || r < lo {
				lo = r
			}
			if !found || r > hi {
				hi = r
			}
			found = true
		}
	}
	if !found {
		return "N/A"
	}
	if lo == hi {
		return fmt.Sprintf("%.2f%%", lo)
	}
	return fmt.Sprintf("%.2f%% - %.2f%%", lo, hi)
}

// TenureRange renders the tenure spread of products, e.g. "3 Years - 7 Years".
func TenureRange(products []*Product) string {
	lo, hi := 0, 0
	for i, p := range products {
		if i == 0 || p.TenureYears < lo {
			lo = p.TenureYears
		}
		if i == 0 || p.TenureYears > hi {
			hi = p.TenureYears
		}
	}
	if lo == hi {
		return fmt.Sprintf("%d Years", lo)
	}
	return fmt.Sprintf("%d Years - %d Years", lo, hi)
}

// Slugify turns a display name into a lowercase, hyphen-separated slug.
// Accented letters are folded to their base letter.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
