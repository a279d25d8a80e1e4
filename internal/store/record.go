// Package store persists finalized enrollments and answers identifier
// uniqueness queries. Every write is keyed by the client transaction token so
// a retried submission returns the original record instead of a duplicate.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Submission is what the wizard hands to persistence exactly once per success
type Submission struct {
	TransactionToken string              `json:"transactionToken"`
	Snapshot         domain.FormSnapshot `json:"snapshot"`
	Quote            domain.Quote        `json:"quote"`
	SubmittedAt      time.Time           `json:"submittedAt"`
}

// Receipt confirms a stored enrollment. Replayed is set when the token was already known.
type Receipt struct {
	EnrollmentID     string              `json:"enrollmentId"`
	TransactionToken string              `json:"transactionToken"`
	ApprovalLevel    domain.ApprovalTier `json:"approvalLevel"`
	FinalValue       decimal.Decimal     `json:"finalValue"`
	CreatedAt        time.Time           `json:"createdAt"`
	Replayed         bool                `json:"replayed"`
}

// EnrollmentRecord is the persisted enrollment with its financial fields denormalized
type EnrollmentRecord struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TransactionToken string    `gorm:"column:transaction_token;type:varchar(64);uniqueIndex;not null" json:"transactionToken"`

	StudentName string `gorm:"column:student_name;type:varchar(120);not null" json:"studentName"`
	StudentCPF  string `gorm:"column:student_cpf;type:char(11);index;not null" json:"studentCpf"`
	SeriesID    string `gorm:"column:series_id;type:varchar(40);not null" json:"seriesId"`
	TrackID     string `gorm:"column:track_id;type:varchar(40);not null" json:"trackId"`
	SchoolYear  int    `gorm:"column:school_year;not null" json:"schoolYear"`

	BaseValue               decimal.Decimal `gorm:"column:base_value;type:numeric(12,2);not null" json:"baseValue"`
	TotalDiscountPercentage decimal.Decimal `gorm:"column:total_discount_percentage;type:numeric(7,3);not null" json:"totalDiscountPercentage"`
	TotalDiscountValue      decimal.Decimal `gorm:"column:total_discount_value;type:numeric(12,2);not null" json:"totalDiscountValue"`
	FinalValue              decimal.Decimal `gorm:"column:final_value;type:numeric(12,2);not null" json:"finalValue"`
	ApprovalLevel           string          `gorm:"column:approval_level;type:varchar(20);not null" json:"approvalLevel"`

	Snapshot datatypes.JSON `gorm:"column:snapshot;type:jsonb;not null" json:"snapshot"`
	Pricing  datatypes.JSON `gorm:"column:pricing;type:jsonb;not null" json:"pricing"`

	SubmittedAt time.Time `gorm:"column:submitted_at;not null" json:"submittedAt"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName pins the table name
func (EnrollmentRecord) TableName() string {
	return "enrollments"
}

// NewEnrollmentRecord maps a submission onto a new record with a fresh id
func NewEnrollmentRecord(sub Submission) (*EnrollmentRecord, error) {
	if sub.TransactionToken == "" {
		return nil, fmt.Errorf("transaction token is required")
	}
	cpf := domain.NormalizeCPF(sub.Snapshot.Student.CPF)
	if cpf == "" {
		return nil, fmt.Errorf("student CPF is required")
	}

	snapshotJSON, err := json.Marshal(sub.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	pricingJSON, err := json.Marshal(sub.Quote)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pricing: %w", err)
	}

	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	pricing := sub.Quote.Pricing
	return &EnrollmentRecord{
		ID:                      uuid.New(),
		TransactionToken:        sub.TransactionToken,
		StudentName:             sub.Snapshot.Student.Name,
		StudentCPF:              cpf,
		SeriesID:                sub.Snapshot.Academic.SeriesID,
		TrackID:                 sub.Snapshot.Academic.TrackID,
		SchoolYear:              sub.Snapshot.Academic.SchoolYear,
		BaseValue:               pricing.BaseValue,
		TotalDiscountPercentage: pricing.TotalDiscountPercentage,
		TotalDiscountValue:      pricing.TotalDiscountValue,
		FinalValue:              pricing.FinalValue,
		ApprovalLevel:           string(sub.Quote.Approval.Level),
		Snapshot:                datatypes.JSON(snapshotJSON),
		Pricing:                 datatypes.JSON(pricingJSON),
		SubmittedAt:             submittedAt,
	}, nil
}

// Receipt builds the receipt for the record
func (r *EnrollmentRecord) Receipt(replayed bool) Receipt {
	return Receipt{
		EnrollmentID:     r.ID.String(),
		TransactionToken: r.TransactionToken,
		ApprovalLevel:    domain.ApprovalTier(r.ApprovalLevel),
		FinalValue:       r.FinalValue,
		CreatedAt:        r.CreatedAt,
		Replayed:         replayed,
	}
}

// DecodeSnapshot returns the stored form snapshot
func (r *EnrollmentRecord) DecodeSnapshot() (domain.FormSnapshot, error) {
	var snapshot domain.FormSnapshot
	if err := json.Unmarshal(r.Snapshot, &snapshot); err != nil {
		return domain.FormSnapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}
