package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DiscountRow is a discount catalog entry as stored
type DiscountRow struct {
	ID            string          `gorm:"column:id;type:varchar(40);primaryKey"`
	Code          string          `gorm:"column:code;type:varchar(20);uniqueIndex;not null"`
	Name          string          `gorm:"column:name;type:varchar(120);not null"`
	Category      string          `gorm:"column:category;type:varchar(40);not null"`
	MaxPercentage decimal.Decimal `gorm:"column:max_percentage;type:numeric(6,3);not null"`
	Active        bool            `gorm:"column:active;not null;default:true"`
	Eligibility   datatypes.JSON  `gorm:"column:eligibility;type:jsonb"`
	Position      int             `gorm:"column:position;not null;default:0"`
}

// TableName pins the table name
func (DiscountRow) TableName() string { return "discount_catalog" }

// SeriesRow is a series as stored
type SeriesRow struct {
	ID               string          `gorm:"column:id;type:varchar(40);primaryKey"`
	Name             string          `gorm:"column:name;type:varchar(120);not null"`
	BaseMonthlyValue decimal.Decimal `gorm:"column:base_monthly_value;type:numeric(12,2);not null"`
	MaterialValue    decimal.Decimal `gorm:"column:material_value;type:numeric(12,2);not null;default:0"`
}

// TableName pins the table name
func (SeriesRow) TableName() string { return "series" }

// TrackRow is a track as stored
type TrackRow struct {
	ID         string          `gorm:"column:id;type:varchar(40);primaryKey"`
	Name       string          `gorm:"column:name;type:varchar(120);not null"`
	CapMaximum decimal.Decimal `gorm:"column:cap_maximum;type:numeric(6,3);not null"`
	Type       string          `gorm:"column:type;type:varchar(40)"`
}

// TableName pins the table name
func (TrackRow) TableName() string { return "tracks" }

// CatalogSource reads reference catalogs from the database
type CatalogSource struct {
	db *gorm.DB
}

// NewCatalogSource creates a catalog source over db
func NewCatalogSource(db *gorm.DB) *CatalogSource {
	return &CatalogSource{db: db}
}

func (cs *CatalogSource) String() string {
	return "database"
}

// Load reads all three catalogs and validates the discount entries
func (cs *CatalogSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	db := cs.db.WithContext(ctx)

	var discountRows []DiscountRow
	if err := db.Order("position, id").Find(&discountRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load discounts: %w", err)
	}
	var seriesRows []SeriesRow
	if err := db.Order("id").Find(&seriesRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}
	var trackRows []TrackRow
	if err := db.Order("id").Find(&trackRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	entries, err := DiscountEntries(discountRows)
	if err != nil {
		return nil, err
	}
	catalog, err := domain.NewDiscountCatalog(entries)
	if err != nil {
		return nil, err
	}

	refs := &domain.ReferenceData{Discounts: catalog, LoadedAt: time.Now()}
	for _, row := range seriesRows {
		refs.Series = append(refs.Series, domain.Series{
			ID: row.ID, Name: row.Name, BaseMonthlyValue: row.BaseMonthlyValue, MaterialValue: row.MaterialValue,
		})
	}
	for _, row := range trackRows {
		refs.Tracks = append(refs.Tracks, domain.Track{
			ID: row.ID, Name: row.Name, CapMaximum: row.CapMaximum, Type: row.Type,
		})
	}
	return refs, nil
}

// Seed upserts the given catalogs, e.g. from a validated reference.yaml
func (cs *CatalogSource) Seed(ctx context.Context, refs *domain.ReferenceData) error {
	discountRows, err := DiscountRows(refs.Discounts.Entries())
	if err != nil {
		return err
	}
	seriesRows := make([]SeriesRow, 0, len(refs.Series))
	for _, s := range refs.Series {
		seriesRows = append(seriesRows, SeriesRow{ID: s.ID, Name: s.Name, BaseMonthlyValue: s.BaseMonthlyValue, MaterialValue: s.MaterialValue})
	}
	trackRows := make([]TrackRow, 0, len(refs.Tracks))
	for _, t := range refs.Tracks {
		trackRows = append(trackRows, TrackRow{ID: t.ID, Name: t.Name, CapMaximum: t.CapMaximum, Type: t.Type})
	}

	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})
		if len(discountRows) > 0 {
			if err := upsert.Create(&discountRows).Error; err != nil {
				return fmt.Errorf("failed to seed discounts: %w", err)
			}
		}
		if len(seriesRows) > 0 {
			if err := upsert.Create(&seriesRows).Error; err != nil {
				return fmt.Errorf("failed to seed series: %w", err)
			}
		}
		if len(trackRows) > 0 {
			if err := upsert.Create(&trackRows).Error; err != nil {
				return fmt.Errorf("failed to seed tracks: %w", err)
			}
		}
		return nil
	})
}

// DiscountEntries converts stored rows to catalog entries
func DiscountEntries(rows []DiscountRow) ([]domain.DiscountCatalogEntry, error) {
	entries := make([]domain.DiscountCatalogEntry, 0, len(rows))
	for _, row := range rows {
		entry := domain.DiscountCatalogEntry{
			ID:            row.ID,
			Code:          row.Code,
			Name:          row.Name,
			Category:      domain.DiscountCategory(row.Category),
			MaxPercentage: row.MaxPercentage,
			Active:        row.Active,
		}
		if len(row.Eligibility) > 0 && string(row.Eligibility) != "null" {
			if err := json.Unmarshal(row.Eligibility, &entry.Eligibility); err != nil {
				return nil, fmt.Errorf("discount %s eligibility: %w", row.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DiscountRows converts catalog entries to rows, keeping their order
func DiscountRows(entries []domain.DiscountCatalogEntry) ([]DiscountRow, error) {
	rows := make([]DiscountRow, 0, len(entries))
	for i, entry := range entries {
		row := DiscountRow{
			ID:            entry.ID,
			Code:          entry.Code,
			Name:          entry.Name,
			Category:      string(entry.Category),
			MaxPercentage: entry.MaxPercentage,
			Active:        entry.Active,
			Position:      i,
		}
		if len(entry.Eligibility) > 0 {
			raw, err := json.Marshal(entry.Eligibility)
			if err != nil {
				return nil, fmt.Errorf("discount %s eligibility: %w", entry.ID, err)
			}
			row.Eligibility = datatypes.JSON(raw)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
