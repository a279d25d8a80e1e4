package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rgehrsitz/matricula/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GormStore persists enrollments in PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// Open connects to PostgreSQL with the given DSN
func Open(dsn string) (*GormStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewGormStore(db), nil
}

// NewGormStore wraps an existing connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying connection
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the enrollment and catalog tables
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&EnrollmentRecord{}, &DiscountRow{}, &SeriesRow{}, &TrackRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Submit stores the enrollment inside a transaction. A known token returns the
// original receipt; a concurrent insert of the same token is resolved the same way.
func (s *GormStore) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	record, err := NewEnrollmentRecord(sub)
	if err != nil {
		return Receipt{}, err
	}

	var receipt Receipt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing EnrollmentRecord
		err := tx.Where("transaction_token = ?", record.TransactionToken).First(&existing).Error
		if err == nil {
			receipt = existing.Receipt(true)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up transaction: %w", err)
		}

		var count int64
		if err := tx.Model(&EnrollmentRecord{}).Where("student_cpf = ?", record.StudentCPF).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check identifier: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: CPF %s", domain.ErrDuplicateRecord, domain.FormatCPF(record.StudentCPF))
		}

		if err := tx.Create(record).Error; err != nil {
			return err
		}
		receipt = record.Receipt(false)
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a retry carrying the same token
		existing, findErr := s.FindByToken(ctx, record.TransactionToken)
		if findErr != nil {
			return Receipt{}, fmt.Errorf("%w: %v", domain.ErrDuplicateRecord, err)
		}
		return existing.Receipt(true), nil
	}
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// Exists reports whether the CPF already has an enrollment
func (s *GormStore) Exists(ctx context.Context, identifier string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&EnrollmentRecord{}).
		Where("student_cpf = ?", domain.NormalizeCPF(identifier)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check identifier: %w", err)
	}
	return count > 0, nil
}

// FindByToken loads the record stored under token
func (s *GormStore) FindByToken(ctx context.Context, token string) (*EnrollmentRecord, error) {
	var record EnrollmentRecord
	if err := s.db.WithContext(ctx).Where("transaction_token = ?", token).First(&record).Error; err != nil {
		return nil, fmt.Errorf("enrollment with transaction %s: %w", token, err)
	}
	return &record, nil
}

// List returns every record ordered by creation time
func (s *GormStore) List(ctx context.Context) ([]EnrollmentRecord, error) {
	var records []EnrollmentRecord
	if err := s.db.WithContext(ctx).Order("created_at").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return records, nil
}
