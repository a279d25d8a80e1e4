package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/store"
	"github.com/shopspring/decimal"
)

const (
	studentCPF  = "529.982.247-25"
	otherCPF    = "123.456.789-09"
	guardianCPF = "111.444.777-35"
)

func testReferenceData() *domain.ReferenceData {
	return &domain.ReferenceData{
		Discounts: domain.MustDiscountCatalog([]domain.DiscountCatalogEntry{
			{ID: "pont", Code: "PONT", Name: "Pontualidade", Category: domain.CategoryEarlyPayment, MaxPercentage: decimal.NewFromInt(10), Active: true},
			{ID: "irm", Code: "IRM", Name: "Irmãos", Category: domain.CategorySibling, MaxPercentage: decimal.NewFromInt(15), Active: true},
			{ID: "com", Code: "COM", Name: "Comercial", Category: domain.CategoryCommercial, MaxPercentage: decimal.NewFromInt(60), Active: true},
			{ID: "old", Code: "OLD", Name: "Convênio encerrado", Category: domain.CategoryPartnership, MaxPercentage: decimal.NewFromInt(20), Active: false},
		}),
		Series: []domain.Series{
			{ID: "ef1-1", Name: "1º ano EF", BaseMonthlyValue: decimal.NewFromInt(1000), MaterialValue: decimal.NewFromInt(800)},
		},
		Tracks: []domain.Track{
			{ID: "padrao", Name: "Padrão", CapMaximum: decimal.NewFromInt(50), Type: "regular"},
		},
	}
}

func validStudent() domain.Student {
	return domain.Student{
		Name:      "Maria Clara Souza",
		CPF:       studentCPF,
		BirthDate: time.Date(2019, 3, 10, 0, 0, 0, 0, time.UTC),
		Gender:    "F",
		Siblings:  1,
	}
}

func validSnapshot() domain.FormSnapshot {
	return domain.FormSnapshot{
		Student: validStudent(),
		Guardians: []domain.Guardian{{
			Name:                 "Ana Paula Souza",
			CPF:                  guardianCPF,
			Relationship:         "mae",
			Email:                "ana.souza@example.com",
			Phone:                "(11) 98765-4321",
			FinancialResponsible: true,
		}},
		Address: domain.Address{
			CEP:          "01310-100",
			Street:       "Avenida Paulista",
			Number:       "1578",
			Neighborhood: "Bela Vista",
			City:         "São Paulo",
			State:        "SP",
		},
		Academic: domain.Academic{SeriesID: "ef1-1", TrackID: "padrao", SchoolYear: 2027, Shift: "manha"},
		Discounts: []domain.SelectedDiscount{
			{DiscountID: "pont", AppliedPercentage: decimal.NewFromInt(10)},
			{DiscountID: "irm", AppliedPercentage: decimal.NewFromInt(15)},
		},
		Review: domain.Review{Confirmed: true},
	}
}

func newTestWizard(submitter Submitter, opts ...Option) *Wizard {
	w := New(calculation.NewCalculationEngine(), submitter, opts...)
	w.SetReferenceData(testReferenceData())
	return w
}

// fakeOracle answers from a set of known identifiers, optionally slowly
type fakeOracle struct {
	mu       sync.Mutex
	existing map[string]bool
	delays   map[string]time.Duration
	err      error
	calls    []string
}

func newFakeOracle(existing ...string) *fakeOracle {
	o := &fakeOracle{existing: map[string]bool{}, delays: map[string]time.Duration{}}
	for _, id := range existing {
		o.existing[domain.NormalizeCPF(id)] = true
	}
	return o
}

func (o *fakeOracle) Exists(ctx context.Context, identifier string) (bool, error) {
	o.mu.Lock()
	o.calls = append(o.calls, identifier)
	delay := o.delays[identifier]
	exists := o.existing[identifier]
	err := o.err
	o.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return exists, err
}

func (o *fakeOracle) Calls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string{}, o.calls...)
}

// fakeSubmitter fails the first failures calls and can block until released
type fakeSubmitter struct {
	mu       sync.Mutex
	failures int
	block    chan struct{}
	tokens   []string
	received []store.Submission
}

func (s *fakeSubmitter) Submit(ctx context.Context, sub store.Submission) (store.Receipt, error) {
	s.mu.Lock()
	s.tokens = append(s.tokens, sub.TransactionToken)
	s.received = append(s.received, sub)
	block := s.block
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return store.Receipt{}, ctx.Err()
		}
	}
	if fail {
		return store.Receipt{}, errors.New("connection reset by peer")
	}
	return store.Receipt{
		EnrollmentID:     "enr-1",
		TransactionToken: sub.TransactionToken,
		ApprovalLevel:    sub.Quote.Approval.Level,
		FinalValue:       sub.Quote.Pricing.FinalValue,
	}, nil
}

func (s *fakeSubmitter) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.tokens...)
}
