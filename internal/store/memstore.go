package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rgehrsitz/matricula/internal/domain"
)

// MemStore is an in-memory enrollment store. It is safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	byToken map[string]*EnrollmentRecord
	byCPF   map[string]string
	now     func() time.Time
}

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		byToken: make(map[string]*EnrollmentRecord),
		byCPF:   make(map[string]string),
		now:     time.Now,
	}
}

// Submit stores the enrollment. A known token returns the original receipt
// with Replayed set; a CPF enrolled under another token fails with ErrDuplicateRecord.
func (s *MemStore) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	record, err := NewEnrollmentRecord(sub)
	if err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byToken[sub.TransactionToken]; ok {
		return existing.Receipt(true), nil
	}
	if token, ok := s.byCPF[record.StudentCPF]; ok {
		return Receipt{}, fmt.Errorf("%w: CPF %s (transaction %s)", domain.ErrDuplicateRecord, domain.FormatCPF(record.StudentCPF), token)
	}

	record.CreatedAt = s.now()
	s.byToken[record.TransactionToken] = record
	s.byCPF[record.StudentCPF] = record.TransactionToken
	return record.Receipt(false), nil
}

// Exists reports whether the CPF already has an enrollment
func (s *MemStore) Exists(ctx context.Context, identifier string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCPF[domain.NormalizeCPF(identifier)]
	return ok, nil
}

// FindByToken returns a copy of the record stored under token
func (s *MemStore) FindByToken(ctx context.Context, token string) (*EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byToken[token]
	if !ok {
		return nil, fmt.Errorf("enrollment with transaction %s not found", token)
	}
	copied := *record
	return &copied, nil
}

// List returns every record ordered by creation time
func (s *MemStore) List(ctx context.Context) ([]EnrollmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EnrollmentRecord, 0, len(s.byToken))
	for _, record := range s.byToken {
		out = append(out, *record)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
