package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountCategory groups catalog discounts by business purpose
type DiscountCategory string

const (
	CategorySibling            DiscountCategory = "irmaos"
	CategoryEmployee           DiscountCategory = "funcionario"
	CategoryEarlyPayment       DiscountCategory = "pontualidade"
	CategoryPartnership        DiscountCategory = "convenio"
	CategoryCommercial         DiscountCategory = "comercial"
	CategoryFullScholarship    DiscountCategory = "bolsa_integral"
	CategoryPartialScholarship DiscountCategory = "bolsa_parcial"
)

// DiscountCategories lists every category a catalog entry may carry
var DiscountCategories = []DiscountCategory{
	CategorySibling,
	CategoryEmployee,
	CategoryEarlyPayment,
	CategoryPartnership,
	CategoryCommercial,
	CategoryFullScholarship,
	CategoryPartialScholarship,
}

// Known reports whether c is one of DiscountCategories
func (c DiscountCategory) Known() bool {
	for _, known := range DiscountCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Series is a school grade offered for enrollment with its monthly tuition
type Series struct {
	ID               string          `yaml:"id" json:"id"`
	Name             string          `yaml:"name" json:"name"`
	BaseMonthlyValue decimal.Decimal `yaml:"base_monthly_value" json:"baseMonthlyValue"`
	MaterialValue    decimal.Decimal `yaml:"material_value" json:"materialValue"`
}

// BaseTuition is the undiscounted amount used for a pricing pass
type BaseTuition struct {
	Value    decimal.Decimal `json:"value"`
	SeriesID string          `json:"seriesId"`
}

// Track is a discount policy bucket; its CapMaximum bounds the cumulative discount
type Track struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	CapMaximum decimal.Decimal `yaml:"cap_maximum" json:"capMaximum"`
	Type       string          `yaml:"type" json:"type"`
}

// DiscountCatalogEntry is an immutable catalog discount definition.
// Eligibility is an optional JSON-Logic rule evaluated against the form snapshot.
type DiscountCatalogEntry struct {
	ID            string           `yaml:"id" json:"id"`
	Code          string           `yaml:"code" json:"code"`
	Name          string           `yaml:"name" json:"name"`
	Category      DiscountCategory `yaml:"category" json:"category"`
	MaxPercentage decimal.Decimal  `yaml:"max_percentage" json:"maxPercentage"`
	Active        bool             `yaml:"active" json:"active"`
	Eligibility   map[string]any   `yaml:"eligibility,omitempty" json:"eligibility,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Validate checks the entry's own invariants
func (e DiscountCatalogEntry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("discount id is required")
	}
	if strings.TrimSpace(e.Code) == "" {
		return fmt.Errorf("discount %s: code is required", e.ID)
	}
	if e.MaxPercentage.LessThan(decimal.Zero) || e.MaxPercentage.GreaterThan(hundred) {
		return fmt.Errorf("discount %s: max percentage must be between 0 and 100, got %s", e.ID, e.MaxPercentage.String())
	}
	return nil
}

// DiscountCatalog indexes catalog entries by id. Build it with NewDiscountCatalog.
type DiscountCatalog struct {
	entries map[string]DiscountCatalogEntry
	order   []string
}

// NewDiscountCatalog validates every entry and returns an indexed catalog.
// A malformed entry is a fault in the reference data, not user input.
func NewDiscountCatalog(entries []DiscountCatalogEntry) (DiscountCatalog, error) {
	catalog := DiscountCatalog{entries: make(map[string]DiscountCatalogEntry, len(entries))}
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return DiscountCatalog{}, fmt.Errorf("discount catalog entry %d: %w", i, err)
		}
		if _, exists := catalog.entries[entry.ID]; exists {
			return DiscountCatalog{}, fmt.Errorf("discount catalog entry %d: duplicate id %s", i, entry.ID)
		}
		catalog.entries[entry.ID] = entry
		catalog.order = append(catalog.order, entry.ID)
	}
	return catalog, nil
}

// MustDiscountCatalog is NewDiscountCatalog for static fixtures; it panics on malformed entries
func MustDiscountCatalog(entries []DiscountCatalogEntry) DiscountCatalog {
	catalog, err := NewDiscountCatalog(entries)
	if err != nil {
		panic(err)
	}
	return catalog
}

// Lookup returns the entry for id regardless of its active flag
func (c DiscountCatalog) Lookup(id string) (DiscountCatalogEntry, bool) {
	entry, ok := c.entries[id]
	return entry, ok
}

// Entries returns the catalog in load order
func (c DiscountCatalog) Entries() []DiscountCatalogEntry {
	out := make([]DiscountCatalogEntry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// ActiveEntries returns only entries that may be selected
func (c DiscountCatalog) ActiveEntries() []DiscountCatalogEntry {
	out := []DiscountCatalogEntry{}
	for _, entry := range c.Entries() {
		if entry.Active {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of catalog entries
func (c DiscountCatalog) Len() int {
	return len(c.entries)
}

// ReferenceData is the read-only catalog set loaded once per session
type ReferenceData struct {
	Discounts DiscountCatalog
	Series    []Series
	Tracks    []Track
	LoadedAt  time.Time
}

// FindSeries looks up a series by id
func (r *ReferenceData) FindSeries(id string) (Series, bool) {
	if r == nil {
		return Series{}, false
	}
	for _, s := range r.Series {
		if s.ID == id {
			return s, true
		}
	}
	return Series{}, false
}

// FindTrack looks up a track by id
func (r *ReferenceData) FindTrack(id string) (Track, bool) {
	if r == nil {
		return Track{}, false
	}
	for _, t := range r.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// SortedSeries returns series ordered by name for display
func (r *ReferenceData) SortedSeries() []Series {
	out := append([]Series(nil), r.Series...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
