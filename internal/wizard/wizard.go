package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/refdata"
	"github.com/rgehrsitz/matricula/internal/store"
)

// Submitter persists a finalized enrollment, idempotently by transaction token
type Submitter interface {
	Submit(ctx context.Context, sub store.Submission) (store.Receipt, error)
}

// Wizard owns one intake: its snapshot, the derived quote and the navigation
// state. All methods are safe to call from the UI loop and from async completions.
type Wizard struct {
	gate      *Gate
	engine    *calculation.CalculationEngine
	submitter Submitter
	checker   *IdentifierChecker
	logger    calculation.Logger

	submitTimeout time.Duration
	newToken      func() string
	now           func() time.Time

	mu          sync.Mutex
	snapshot    domain.FormSnapshot
	quote       domain.Quote
	refs        *domain.ReferenceData
	refsErr     error
	refsLoading bool
	refsGen     uint64
	current     int
	stepErrors  map[StepID][]string
	identifier  IdentifierState
	submitting  bool
	submitted   bool
	token       string
	receipt     *store.Receipt

	// duplicateMessage is the student step error installed by the last duplicate result
	duplicateMessage string
}

// Option configures a Wizard
type Option func(*Wizard)

// WithGate replaces the default gate
func WithGate(g *Gate) Option {
	return func(w *Wizard) { w.gate = g }
}

// WithIdentifierChecker enables the debounced CPF uniqueness check
func WithIdentifierChecker(c *IdentifierChecker) Option {
	return func(w *Wizard) { w.checker = c }
}

// WithLogger sets the wizard logger
func WithLogger(l calculation.Logger) Option {
	return func(w *Wizard) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSubmitTimeout bounds each submission attempt
func WithSubmitTimeout(d time.Duration) Option {
	return func(w *Wizard) { w.submitTimeout = d }
}

// WithTokenGenerator replaces uuid generation of transaction tokens
func WithTokenGenerator(fn func() string) Option {
	return func(w *Wizard) { w.newToken = fn }
}

// WithClock sets the clock used for submission timestamps
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// New creates a wizard at step 0 with an empty snapshot. Forward navigation is
// blocked until reference data is loaded.
func New(engine *calculation.CalculationEngine, submitter Submitter, opts ...Option) *Wizard {
	if engine == nil {
		engine = calculation.NewCalculationEngine()
	}
	w := &Wizard{
		gate:       NewGate(),
		engine:     engine,
		submitter:  submitter,
		logger:     calculation.NopLogger{},
		newToken:   uuid.NewString,
		now:        time.Now,
		snapshot:   domain.DefaultFormSnapshot(),
		stepErrors: make(map[StepID][]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.checker != nil {
		w.checker.OnResult(w.applyLookup)
	}
	w.recomputeLocked()
	return w
}

// LoadReferenceData fetches catalogs from src. While it runs, and after it
// fails, forward navigation and submission are disabled.
func (w *Wizard) LoadReferenceData(ctx context.Context, src refdata.Source) error {
	w.mu.Lock()
	w.refsGen++
	gen := w.refsGen
	w.refsLoading = true
	w.mu.Unlock()

	refs, err := src.Load(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.refsGen {
		return nil
	}
	w.refsLoading = false
	if err != nil {
		var dataErr *domain.DataError
		if !errors.As(err, &dataErr) {
			err = &domain.DataError{Source: "reference", Err: err}
		}
		w.refsErr = err
		w.logger.Errorf("reference data unavailable: %v", err)
		return err
	}
	w.refs = refs
	w.refsErr = nil
	w.recomputeLocked()
	return nil
}

// SetReferenceData installs already loaded catalogs
func (w *Wizard) SetReferenceData(refs *domain.ReferenceData) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refsGen++
	w.refsLoading = false
	w.refs = refs
	w.refsErr = nil
	if refs == nil {
		w.refsErr = &domain.DataError{Source: "reference", Err: errors.New("no reference data")}
	}
	w.recomputeLocked()
}

// ReferenceData returns the loaded catalogs, or nil
func (w *Wizard) ReferenceData() *domain.ReferenceData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.refs
}

// SetStudent replaces the student data. A changed CPF restarts the uniqueness check.
func (w *Wizard) SetStudent(student domain.Student) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		previous := domain.NormalizeCPF(s.Student.CPF)
		s.Student = student
		cpf := domain.NormalizeCPF(student.CPF)
		if cpf != previous {
			w.scheduleLookupLocked(cpf)
		}
	})
}

// SetGuardians replaces the guardian list
func (w *Wizard) SetGuardians(guardians []domain.Guardian) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		s.Guardians = append([]domain.Guardian{}, guardians...)
	})
}

// SetAddress replaces the address
func (w *Wizard) SetAddress(address domain.Address) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		s.Address = address
	})
}

// SetAcademic replaces the academic selection, which moves base value and CAP
func (w *Wizard) SetAcademic(academic domain.Academic) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		s.Academic = academic
	})
}

// SetDiscounts replaces every discount selection
func (w *Wizard) SetDiscounts(selections []domain.SelectedDiscount) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		s.Discounts = append([]domain.SelectedDiscount{}, selections...)
	})
}

// AddDiscount selects a discount, replacing the percentage if it is already selected
func (w *Wizard) AddDiscount(selection domain.SelectedDiscount) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		for i := range s.Discounts {
			if s.Discounts[i].DiscountID == selection.DiscountID {
				s.Discounts[i] = selection
				return
			}
		}
		s.Discounts = append(s.Discounts, selection)
	})
}

// RemoveDiscount drops a selection by discount id
func (w *Wizard) RemoveDiscount(discountID string) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		kept := s.Discounts[:0]
		for _, sel := range s.Discounts {
			if sel.DiscountID != discountID {
				kept = append(kept, sel)
			}
		}
		s.Discounts = kept
	})
}

// SetReview replaces the review step data
func (w *Wizard) SetReview(review domain.Review) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		s.Review = review
	})
}

// LoadSnapshot replaces the whole form, e.g. for non-interactive intake
func (w *Wizard) LoadSnapshot(snapshot domain.FormSnapshot) error {
	return w.mutate(func(s *domain.FormSnapshot) {
		previous := domain.NormalizeCPF(s.Student.CPF)
		*s = snapshot.DeepCopy()
		if cpf := domain.NormalizeCPF(s.Student.CPF); cpf != previous {
			w.scheduleLookupLocked(cpf)
		}
	})
}

// mutate applies fn to the snapshot and recomputes the quote under one lock,
// so readers never see a snapshot paired with a stale quote.
func (w *Wizard) mutate(fn func(s *domain.FormSnapshot)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted {
		return domain.ErrSubmitted
	}
	if w.submitting {
		return domain.ErrSubmissionInFlight
	}
	fn(&w.snapshot)
	w.recomputeLocked()
	return nil
}

func (w *Wizard) recomputeLocked() {
	w.quote = w.engine.Derive(w.snapshot, w.refs)
}

// VerifyIdentifier runs the uniqueness lookup for the current CPF immediately.
// If the CPF changes while the lookup runs, the result is dropped and the
// state of the newer check is returned.
func (w *Wizard) VerifyIdentifier(ctx context.Context) (IdentifierStatus, error) {
	if w.checker == nil {
		return IdentifierUnchecked, errors.New("no identifier checker configured")
	}
	w.mu.Lock()
	cpf := domain.NormalizeCPF(w.snapshot.Student.CPF)
	if cpf == "" {
		w.mu.Unlock()
		return IdentifierUnchecked, nil
	}
	gen := w.checker.Begin()
	w.identifier = IdentifierState{Value: cpf, Status: IdentifierPending, Generation: gen}
	w.mu.Unlock()

	w.applyLookup(w.checker.Check(ctx, gen, cpf))

	state := w.IdentifierState()
	if state.Status == IdentifierDuplicate {
		return state.Status, &domain.DuplicateIdentifierError{Field: "CPF", Identifier: domain.FormatCPF(state.Value)}
	}
	return state.Status, nil
}

// IdentifierState returns the current identifier check state
func (w *Wizard) IdentifierState() IdentifierState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.identifier
}

func (w *Wizard) scheduleLookupLocked(cpf string) {
	if w.checker == nil {
		w.identifier = IdentifierState{Value: cpf}
		return
	}
	if cpf == "" {
		w.checker.Cancel()
		w.identifier = IdentifierState{}
		return
	}
	gen := w.checker.Schedule(cpf)
	w.identifier = IdentifierState{Value: cpf, Status: IdentifierPending, Generation: gen}
}

// applyLookup adopts a lookup result only if it belongs to the current
// generation and the CPF has not changed since it was issued.
func (w *Wizard) applyLookup(result LookupResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if result.Generation != w.identifier.Generation || result.Identifier != w.identifier.Value {
		w.logger.Debugf("discarding identifier result for generation %d", result.Generation)
		return
	}
	w.identifier.Status = result.Status
	if w.duplicateMessage != "" {
		w.dropStepErrorLocked(StepStudent, w.duplicateMessage)
		w.duplicateMessage = ""
	}
	switch result.Status {
	case IdentifierDuplicate:
		dup := &domain.DuplicateIdentifierError{Field: "CPF", Identifier: domain.FormatCPF(result.Identifier)}
		w.identifier.Message = dup.Error()
		w.duplicateMessage = dup.Error()
		w.stepErrors[StepStudent] = append(w.stepErrors[StepStudent], dup.Error())
	case IdentifierUnknown:
		w.identifier.Message = "não foi possível verificar o CPF; a matrícula segue e será conferida no envio"
	default:
		w.identifier.Message = ""
	}
}

// dropStepErrorLocked removes one message from a step, keeping the others
func (w *Wizard) dropStepErrorLocked(step StepID, message string) {
	var kept []string
	for _, msg := range w.stepErrors[step] {
		if msg != message {
			kept = append(kept, msg)
		}
	}
	if len(kept) == 0 {
		delete(w.stepErrors, step)
		return
	}
	w.stepErrors[step] = kept
}

// NextStep advances one step if the current step's guard allows it. On
// failure the step is unchanged and the reason is attached to the step.
func (w *Wizard) NextStep() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.forwardBlockedLocked(); err != nil {
		return err
	}
	if w.current >= len(Steps)-1 {
		return fmt.Errorf("%w: já está na última etapa", domain.ErrStepBlocked)
	}
	if err := w.leaveLocked(w.current); err != nil {
		return err
	}
	w.current++
	return nil
}

// PrevStep moves back one step without re-validation
func (w *Wizard) PrevStep() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted {
		return domain.ErrSubmitted
	}
	if w.current == 0 {
		return fmt.Errorf("%w: já está na primeira etapa", domain.ErrStepBlocked)
	}
	w.current--
	return nil
}

// GoToStep jumps to step n. Going back is unrestricted; going forward must pass
// the guard of every step being left, the current one included, and leaves the
// step unchanged if any of them refuses.
func (w *Wizard) GoToStep(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitted {
		return domain.ErrSubmitted
	}
	if n < 0 || n >= len(Steps) {
		return fmt.Errorf("%w: etapa %d inexistente", domain.ErrStepBlocked, n)
	}
	if n <= w.current {
		w.current = n
		return nil
	}
	if err := w.forwardBlockedLocked(); err != nil {
		return err
	}
	for step := w.current; step < n; step++ {
		if err := w.leaveLocked(step); err != nil {
			return err
		}
	}
	w.current = n
	return nil
}

func (w *Wizard) forwardBlockedLocked() error {
	if w.submitted {
		return domain.ErrSubmitted
	}
	if w.refsLoading {
		return fmt.Errorf("%w: carregando catálogos", domain.ErrReferenceDataUnavailable)
	}
	if w.refsErr != nil {
		return w.refsErr
	}
	if w.refs == nil {
		return fmt.Errorf("%w: catálogos não carregados", domain.ErrReferenceDataUnavailable)
	}
	return nil
}

func (w *Wizard) leaveLocked(index int) error {
	step := Steps[index]
	result := w.gate.CanLeave(step, w.guardContextLocked())
	if !result.Allowed {
		w.stepErrors[step] = []string{result.Reason}
		return result.Error()
	}
	delete(w.stepErrors, step)
	return nil
}

func (w *Wizard) guardContextLocked() GuardContext {
	return GuardContext{
		Snapshot:   w.snapshot,
		Pricing:    w.quote.Pricing,
		Identifier: w.identifier,
	}
}

// submitBlockedLocked checks every submission precondition and records the
// per-step failures it finds.
func (w *Wizard) submitBlockedLocked() error {
	if w.submitted {
		return domain.ErrSubmitted
	}
	if w.submitting {
		return domain.ErrSubmissionInFlight
	}
	if err := w.forwardBlockedLocked(); err != nil {
		return err
	}
	if w.current != len(Steps)-1 {
		return fmt.Errorf("%w: envio disponível apenas na etapa de revisão", domain.ErrStepBlocked)
	}
	if w.identifier.Status == IdentifierDuplicate {
		return &domain.DuplicateIdentifierError{Field: "CPF", Identifier: domain.FormatCPF(w.identifier.Value)}
	}
	if !w.quote.Pricing.IsValid {
		w.stepErrors[StepDiscounts] = append([]string{}, w.quote.Pricing.ValidationErrors...)
		return &domain.ValidationError{Step: string(StepDiscounts), Messages: w.quote.Pricing.ValidationErrors}
	}
	failures := w.gate.ValidateAll(w.snapshot, w.refs)
	if len(failures) == 0 {
		return nil
	}
	var messages []string
	firstStep := ""
	for _, step := range Steps {
		check, failed := failures[step]
		if !failed {
			continue
		}
		if firstStep == "" {
			firstStep = string(step)
		}
		w.stepErrors[step] = check.Errors
		messages = append(messages, check.Errors...)
	}
	return &domain.ValidationError{Step: firstStep, Messages: messages}
}

// SubmitForm persists the form. Only one submission runs at a time; the
// transaction token is kept across failed attempts so a retry cannot create a
// second record. On success the wizard becomes Submitted and the snapshot is
// reset; on failure the snapshot is untouched.
func (w *Wizard) SubmitForm(ctx context.Context) (store.Receipt, error) {
	w.mu.Lock()
	if err := w.submitBlockedLocked(); err != nil {
		w.mu.Unlock()
		return store.Receipt{}, err
	}
	if w.submitter == nil {
		w.mu.Unlock()
		return store.Receipt{}, errors.New("no submitter configured")
	}
	if w.token == "" {
		w.token = w.newToken()
	}
	sub := store.Submission{
		TransactionToken: w.token,
		Snapshot:         w.snapshot.DeepCopy(),
		Quote:            w.quote,
		SubmittedAt:      w.now(),
	}
	sub.Snapshot.CurrentStep = w.current
	w.submitting = true
	delete(w.stepErrors, StepReview)
	w.mu.Unlock()

	if w.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.submitTimeout)
		defer cancel()
	}
	receipt, err := w.submitter.Submit(ctx, sub)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		subErr := &domain.SubmissionError{TransactionToken: sub.TransactionToken, Err: err}
		w.stepErrors[StepReview] = []string{"falha ao enviar a matrícula; tente novamente: " + err.Error()}
		w.logger.Errorf("submission %s failed: %v", sub.TransactionToken, err)
		return store.Receipt{}, subErr
	}

	w.logger.Infof("submission %s stored as enrollment %s (replayed=%t)", receipt.TransactionToken, receipt.EnrollmentID, receipt.Replayed)
	w.submitted = true
	w.receipt = &receipt
	w.token = ""
	w.snapshot = domain.DefaultFormSnapshot()
	w.stepErrors = make(map[StepID][]string)
	w.identifier = IdentifierState{}
	w.duplicateMessage = ""
	w.recomputeLocked()
	return receipt, nil
}

// Receipt returns the receipt of the successful submission, if any
func (w *Wizard) Receipt() (store.Receipt, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.receipt == nil {
		return store.Receipt{}, false
	}
	return *w.receipt, true
}

// TransactionToken returns the token the next submission attempt will reuse, if one was issued
func (w *Wizard) TransactionToken() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.token
}

// Reset starts a fresh intake on the same reference data. It is refused while
// a submission is in flight, since that submission still owns the form.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return domain.ErrSubmissionInFlight
	}
	if w.checker != nil {
		w.checker.Cancel()
	}
	w.snapshot = domain.DefaultFormSnapshot()
	w.current = 0
	w.stepErrors = make(map[StepID][]string)
	w.identifier = IdentifierState{}
	w.duplicateMessage = ""
	w.submitted = false
	w.token = ""
	w.receipt = nil
	w.recomputeLocked()
	return nil
}

// Snapshot returns a copy of the form
func (w *Wizard) Snapshot() domain.FormSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snapshot := w.snapshot.DeepCopy()
	snapshot.CurrentStep = w.current
	return snapshot
}

// Quote returns the latest derived quote
func (w *Wizard) Quote() domain.Quote {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quote
}

// StepCheck returns both gate results for a step
func (w *Wizard) StepCheck(step StepID) (FieldCheck, DataCheck) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gate.RequiredFields(step, w.snapshot), w.gate.Validate(step, w.snapshot, w.refs)
}

// State returns the navigation view consumed by front ends
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := WizardState{
		CurrentStep:            w.current,
		StepID:                 Steps[w.current],
		StepCount:              len(Steps),
		IsSubmitting:           w.submitting,
		IsLoadingReferenceData: w.refsLoading,
		Submitted:              w.submitted,
		StepErrors:             make(map[StepID][]string, len(w.stepErrors)),
		Quote:                  w.quote,
		CapBanner:              calculation.CapBanner(w.quote.Cap),
		CapExceeded:            w.quote.Cap.Exceeded,
		Identifier:             w.identifier,
		TransactionToken:       w.token,
	}
	for step, errs := range w.stepErrors {
		state.StepErrors[step] = append([]string{}, errs...)
	}
	if w.refsErr != nil {
		state.ReferenceError = w.refsErr.Error()
	}
	if w.receipt != nil {
		receipt := *w.receipt
		state.Receipt = &receipt
	}

	forwardOK := w.forwardBlockedLocked() == nil
	state.CanGoPrev = !w.submitted && w.current > 0
	if forwardOK && w.current < len(Steps)-1 {
		state.CanGoNext = w.gate.CanLeave(Steps[w.current], w.guardContextLocked()).Allowed
	}
	if forwardOK && !w.submitting && w.current == len(Steps)-1 &&
		w.quote.Pricing.IsValid && w.identifier.Status != IdentifierDuplicate {
		state.CanSubmit = len(w.gate.ValidateAll(w.snapshot, w.refs)) == 0
	}
	return state
}

// WizardState is a read-only view of navigation and pricing for front ends
type WizardState struct {
	CurrentStep            int                 `json:"currentStep"`
	StepID                 StepID              `json:"stepId"`
	StepCount              int                 `json:"stepCount"`
	CanGoNext              bool                `json:"canGoNext"`
	CanGoPrev              bool                `json:"canGoPrev"`
	CanSubmit              bool                `json:"canSubmit"`
	IsSubmitting           bool                `json:"isSubmitting"`
	IsLoadingReferenceData bool                `json:"isLoadingReferenceData"`
	Submitted              bool                `json:"submitted"`
	StepErrors             map[StepID][]string `json:"stepErrors"`
	ReferenceError         string              `json:"referenceError,omitempty"`
	Quote                  domain.Quote        `json:"quote"`
	CapBanner              string              `json:"capBanner"`
	CapExceeded            bool                `json:"capExceeded"`
	Identifier             IdentifierState     `json:"identifier"`
	TransactionToken       string              `json:"transactionToken,omitempty"`
	Receipt                *store.Receipt      `json:"receipt,omitempty"`
}

// Errors flattens the current step's errors for display
func (s WizardState) Errors() string {
	return strings.Join(s.StepErrors[s.StepID], "; ")
}
