package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/refdata"
	"github.com/rgehrsitz/matricula/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizard_InitialState(t *testing.T) {
	w := New(nil, &fakeSubmitter{})
	state := w.State()

	assert.Equal(t, 0, state.CurrentStep)
	assert.Equal(t, StepStudent, state.StepID)
	assert.Equal(t, len(Steps), state.StepCount)
	assert.False(t, state.CanGoNext, "Reference data not loaded yet")
	assert.False(t, state.CanGoPrev)
	assert.False(t, state.CanSubmit)
	assert.False(t, state.Submitted)
	assert.True(t, state.Quote.Pricing.IsValid)
}

func TestWizard_ForwardNavigationNeedsReferenceData(t *testing.T) {
	w := New(nil, &fakeSubmitter{})
	require.NoError(t, w.SetStudent(validStudent()))

	err := w.NextStep()
	assert.ErrorIs(t, err, domain.ErrReferenceDataUnavailable)
	assert.Equal(t, 0, w.State().CurrentStep)

	w.SetReferenceData(testReferenceData())
	assert.True(t, w.State().CanGoNext)
	require.NoError(t, w.NextStep())
	assert.Equal(t, 1, w.State().CurrentStep)
}

func TestWizard_ReferenceDataFailureBlocks(t *testing.T) {
	w := New(nil, &fakeSubmitter{})
	require.NoError(t, w.SetStudent(validStudent()))

	failing := refdata.SourceFunc(func(ctx context.Context) (*domain.ReferenceData, error) {
		return nil, errors.New("catalog service unavailable")
	})
	err := w.LoadReferenceData(context.Background(), failing)
	require.Error(t, err)
	var dataErr *domain.DataError
	assert.ErrorAs(t, err, &dataErr)

	state := w.State()
	assert.False(t, state.CanGoNext)
	assert.Contains(t, state.ReferenceError, "catalog service unavailable")
	assert.ErrorIs(t, w.NextStep(), domain.ErrReferenceDataUnavailable)

	// A successful retry unblocks navigation
	require.NoError(t, w.LoadReferenceData(context.Background(), refdata.StaticSource{Data: testReferenceData()}))
	assert.True(t, w.State().CanGoNext)
	assert.Empty(t, w.State().ReferenceError)
}

func TestWizard_LoadingReferenceDataBlocks(t *testing.T) {
	w := New(nil, &fakeSubmitter{})
	require.NoError(t, w.SetStudent(validStudent()))

	release := make(chan struct{})
	slow := refdata.SourceFunc(func(ctx context.Context) (*domain.ReferenceData, error) {
		<-release
		return testReferenceData(), nil
	})

	done := make(chan error, 1)
	go func() { done <- w.LoadReferenceData(context.Background(), slow) }()

	require.Eventually(t, func() bool { return w.State().IsLoadingReferenceData }, time.Second, 5*time.Millisecond)
	assert.False(t, w.State().CanGoNext)
	assert.ErrorIs(t, w.NextStep(), domain.ErrReferenceDataUnavailable)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, w.State().IsLoadingReferenceData)
	assert.NoError(t, w.NextStep())
}

func TestWizard_NextStepWithMissingFieldsKeepsStep(t *testing.T) {
	w := newTestWizard(&fakeSubmitter{})
	student := validStudent()
	student.CPF = ""
	require.NoError(t, w.SetStudent(student))

	for i := 0; i < 3; i++ {
		err := w.NextStep()
		assert.ErrorIs(t, err, domain.ErrStepBlocked)
		assert.Equal(t, 0, w.State().CurrentStep)
	}

	state := w.State()
	require.Contains(t, state.StepErrors, StepStudent)
	assert.Contains(t, state.Errors(), "CPF")
	assert.False(t, state.CanGoNext)
}

func TestWizard_NextStepClearsStepErrors(t *testing.T) {
	w := newTestWizard(&fakeSubmitter{})
	require.Error(t, w.NextStep())
	require.NotEmpty(t, w.State().StepErrors[StepStudent])

	require.NoError(t, w.SetStudent(validStudent()))
	require.NoError(t, w.NextStep())
	assert.Empty(t, w.State().StepErrors[StepStudent])
}

func TestWizard_PrevStep(t *testing.T) {
	w := newTestWizard(&fakeSubmitter{})
	assert.ErrorIs(t, w.PrevStep(), domain.ErrStepBlocked)

	require.NoError(t, w.SetStudent(validStudent()))
	require.NoError(t, w.NextStep())
	assert.True(t, w.State().CanGoPrev)

	// Going back never re-validates
	require.NoError(t, w.SetStudent(domain.Student{}))
	require.NoError(t, w.PrevStep())
	assert.Equal(t, 0, w.State().CurrentStep)
}

func TestWizard_GoToStep(t *testing.T) {
	w := newTestWizard(&fakeSubmitter{})
	require.NoError(t, w.LoadSnapshot(validSnapshot()))

	require.NoError(t, w.GoToStep(len(Steps)-1))
	assert.Equal(t, StepReview, w.State().StepID)

	require.NoError(t, w.GoToStep(1), "Revisiting a completed step is unrestricted")
	assert.Equal(t, 1, w.State().CurrentStep)

	assert.ErrorIs(t, w.GoToStep(len(Steps)), domain.ErrStepBlocked)
	assert.ErrorIs(t, w.GoToStep(-1), domain.ErrStepBlocked)
}

func TestWizard_GoToStepForwardIsGuarded(t *testing.T) {
	w := newTestWizard(&fakeSubmitter{})
	snapshot := validSnapshot()
	snapshot.Address = domain.Address{}
	require.NoError(t, w.LoadSnapshot(snapshot))

	err := w.GoToStep(StepIndex(StepDiscounts))
	assert.ErrorIs(t, err, domain.ErrStepBlocked)
	assert.Equal(t, 0, w.State().CurrentStep, "A refused jump leaves the step unchanged")
	assert.NotEmpty(t, w.State().StepErrors[StepAddress])

	require.NoError(t, w.GoToStep(StepIndex(StepAddress)))
	assert.Equal(t, StepAddress, w.State().StepID)
}

func TestWizard_DiscountStepBlockedByInvalidPricing(t *testing.T) {
	w := newTestWizard(&fakeSubmitter{})
	require.NoError(t, w.LoadSnapshot(validSnapshot()))
	require.NoError(t, w.GoToStep(StepIndex(StepDiscounts)))

	require.NoError(t, w.SetDiscounts([]domain.SelectedDiscount{{DiscountID: "com", AppliedPercentage: decimal.NewFromInt(60)}}))

	state := w.State()
	assert.True(t, state.CapExceeded)
	assert.Equal(t, "60% de 50% utilizado", state.CapBanner)
	assert.Equal(t, domain.ApprovalDirector, state.Quote.Approval.Level)
	assert.False(t, state.CanGoNext)

	err := w.NextStep()
	assert.ErrorIs(t, err, domain.ErrStepBlocked)
	assert.Equal(t, StepDiscounts, w.State().StepID)
	assert.Contains(t, w.State().Errors(), "CAP excedido")

	require.NoError(t, w.SetDiscounts([]domain.SelectedDiscount{{DiscountID: "com", AppliedPercentage: decimal.NewFromInt(40)}}))
	assert.True(t, w.State().CanGoNext)
	require.NoError(t, w.NextStep())
}

func TestWizard_AddAndRemoveDiscount(t *testing.T) {
	w := newTestWizard(&fakeSubmitter{})
	require.NoError(t, w.SetAcademic(validSnapshot().Academic))

	require.NoError(t, w.AddDiscount(domain.SelectedDiscount{DiscountID: "pont", AppliedPercentage: decimal.NewFromInt(5)}))
	require.NoError(t, w.AddDiscount(domain.SelectedDiscount{DiscountID: "irm", AppliedPercentage: decimal.NewFromInt(15)}))
	require.NoError(t, w.AddDiscount(domain.SelectedDiscount{DiscountID: "pont", AppliedPercentage: decimal.NewFromInt(10)}))

	quote := w.Quote()
	assert.Len(t, w.Snapshot().Discounts, 2)
	assert.Equal(t, "25", quote.Pricing.TotalDiscountPercentage.String())
	assert.Equal(t, "750", quote.Pricing.FinalValue.String())
	assert.Equal(t, domain.ApprovalCoordinator, quote.Approval.Level)

	require.NoError(t, w.RemoveDiscount("irm"))
	quote = w.Quote()
	assert.Equal(t, "10", quote.Pricing.TotalDiscountPercentage.String())
	assert.Equal(t, domain.ApprovalAutomatic, quote.Approval.Level)
}

// Scenario C: the oracle flags the identifier and nextStep keeps the step even
// though every required field is present.
func TestWizard_DuplicateIdentifierBlocksStudentStep(t *testing.T) {
	oracle := newFakeOracle(studentCPF)
	checker := NewIdentifierChecker(oracle, 0, time.Second)
	w := newTestWizard(&fakeSubmitter{}, WithIdentifierChecker(checker))

	require.NoError(t, w.SetStudent(validStudent()))
	require.True(t, NewGate().RequiredFields(StepStudent, w.Snapshot()).OK)

	status, err := w.VerifyIdentifier(context.Background())
	assert.Equal(t, IdentifierDuplicate, status)
	var dupErr *domain.DuplicateIdentifierError
	require.ErrorAs(t, err, &dupErr)

	err = w.NextStep()
	assert.ErrorIs(t, err, domain.ErrStepBlocked)
	state := w.State()
	assert.Equal(t, 0, state.CurrentStep)
	assert.False(t, state.CanGoNext)
	assert.Contains(t, state.Errors(), "já possui matrícula cadastrada")

	// Correcting the CPF restarts the check and unblocks once it comes back clean
	student := validStudent()
	student.CPF = otherCPF
	require.NoError(t, w.SetStudent(student))
	require.Eventually(t, func() bool {
		return w.IdentifierState().Status == IdentifierAvailable
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, w.NextStep())
}

func TestWizard_DebouncedCheckFlagsDuplicate(t *testing.T) {
	oracle := newFakeOracle(studentCPF)
	checker := NewIdentifierChecker(oracle, 20*time.Millisecond, time.Second)
	w := newTestWizard(&fakeSubmitter{}, WithIdentifierChecker(checker))

	require.NoError(t, w.SetStudent(validStudent()))
	assert.Equal(t, IdentifierPending, w.IdentifierState().Status)
	assert.True(t, w.State().CanGoNext, "A pending check does not block")

	require.Eventually(t, func() bool {
		return w.IdentifierState().Status == IdentifierDuplicate
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, w.NextStep(), domain.ErrStepBlocked)
	assert.Equal(t, 0, w.State().CurrentStep)
}

func TestWizard_RapidEditsCoalesceIntoOneLookup(t *testing.T) {
	oracle := newFakeOracle()
	checker := NewIdentifierChecker(oracle, 50*time.Millisecond, time.Second)
	w := newTestWizard(&fakeSubmitter{}, WithIdentifierChecker(checker))

	for _, cpf := range []string{"529", "529.982", "529.982.247", studentCPF} {
		student := validStudent()
		student.CPF = cpf
		require.NoError(t, w.SetStudent(student))
	}

	require.Eventually(t, func() bool {
		return w.IdentifierState().Status == IdentifierAvailable
	}, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{domain.NormalizeCPF(studentCPF)}, oracle.Calls())
}

func TestWizard_StaleLookupIsDiscarded(t *testing.T) {
	oracle := newFakeOracle(studentCPF)
	oracle.delays[domain.NormalizeCPF(studentCPF)] = 150 * time.Millisecond
	checker := NewIdentifierChecker(oracle, 0, time.Second)
	w := newTestWizard(&fakeSubmitter{}, WithIdentifierChecker(checker))

	require.NoError(t, w.SetStudent(validStudent()))
	require.Eventually(t, func() bool { return len(oracle.Calls()) == 1 }, time.Second, time.Millisecond)

	student := validStudent()
	student.CPF = otherCPF
	require.NoError(t, w.SetStudent(student))

	require.Eventually(t, func() bool {
		return w.IdentifierState().Status == IdentifierAvailable
	}, time.Second, 5*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	state := w.IdentifierState()
	assert.Equal(t, IdentifierAvailable, state.Status, "The slow duplicate answer for the old CPF must not be applied")
	assert.Equal(t, domain.NormalizeCPF(otherCPF), state.Value)
}

func TestWizard_VerifyIdentifierDropsResultForEditedCPF(t *testing.T) {
	oracle := newFakeOracle(studentCPF)
	oracle.delays[domain.NormalizeCPF(otherCPF)] = 200 * time.Millisecond
	checker := NewIdentifierChecker(oracle, 20*time.Millisecond, time.Second)
	w := newTestWizard(&fakeSubmitter{}, WithIdentifierChecker(checker))

	student := validStudent()
	student.CPF = otherCPF
	require.NoError(t, w.SetStudent(student))

	done := make(chan IdentifierStatus, 1)
	go func() {
		status, _ := w.VerifyIdentifier(context.Background())
		done <- status
	}()
	require.Eventually(t, func() bool { return len(oracle.Calls()) > 0 }, time.Second, time.Millisecond)

	// The operator types a CPF that is already enrolled while the lookup runs
	require.NoError(t, w.SetStudent(validStudent()))

	status := <-done
	assert.NotEqual(t, IdentifierAvailable, status, "The answer for the previous CPF must not be adopted")

	require.Eventually(t, func() bool {
		return w.IdentifierState().Status == IdentifierDuplicate
	}, time.Second, 5*time.Millisecond)
	time.Sleep(250 * time.Millisecond)

	state := w.IdentifierState()
	assert.Equal(t, IdentifierDuplicate, state.Status)
	assert.Equal(t, domain.NormalizeCPF(studentCPF), state.Value)
	assert.ErrorIs(t, w.NextStep(), domain.ErrStepBlocked)
	assert.Equal(t, 0, w.State().CurrentStep)
}

func TestWizard_LookupResultKeepsOtherStepErrors(t *testing.T) {
	oracle := newFakeOracle(studentCPF)
	oracle.delays[domain.NormalizeCPF(otherCPF)] = 50 * time.Millisecond
	checker := NewIdentifierChecker(oracle, 0, time.Second)
	w := newTestWizard(&fakeSubmitter{}, WithIdentifierChecker(checker))

	require.NoError(t, w.SetStudent(validStudent()))
	_, err := w.VerifyIdentifier(context.Background())
	require.Error(t, err)
	require.Contains(t, w.State().Errors(), "já possui matrícula cadastrada")

	student := validStudent()
	student.CPF = otherCPF
	student.Name = ""
	require.NoError(t, w.SetStudent(student))
	require.ErrorIs(t, w.NextStep(), domain.ErrStepBlocked)

	require.Eventually(t, func() bool {
		return w.IdentifierState().Status == IdentifierAvailable
	}, time.Second, 5*time.Millisecond)

	errs := w.State().StepErrors[StepStudent]
	assert.NotEmpty(t, errs, "A clean lookup must not hide the missing-field message")
	assert.NotContains(t, w.State().Errors(), "já possui matrícula cadastrada")
}

func TestWizard_InconclusiveLookupDoesNotBlock(t *testing.T) {
	oracle := newFakeOracle(studentCPF)
	oracle.delays[domain.NormalizeCPF(studentCPF)] = time.Second
	checker := NewIdentifierChecker(oracle, 0, 20*time.Millisecond)
	logger := &testLogger{}
	checker.SetLogger(logger)
	w := newTestWizard(&fakeSubmitter{}, WithIdentifierChecker(checker))

	require.NoError(t, w.SetStudent(validStudent()))
	status, err := w.VerifyIdentifier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, IdentifierUnknown, status)
	assert.NotEmpty(t, w.IdentifierState().Message)
	assert.NotEmpty(t, logger.Warnings())

	require.NoError(t, w.NextStep())
}

func TestWizard_SubmitSuccess(t *testing.T) {
	submitter := &fakeSubmitter{}
	w := newTestWizard(submitter, WithTokenGenerator(func() string { return "tok-1" }))
	require.NoError(t, w.LoadSnapshot(validSnapshot()))
	require.NoError(t, w.GoToStep(len(Steps)-1))
	require.True(t, w.State().CanSubmit)

	receipt, err := w.SubmitForm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", receipt.TransactionToken)
	assert.Equal(t, domain.ApprovalCoordinator, receipt.ApprovalLevel)

	require.Len(t, submitter.received, 1)
	sent := submitter.received[0]
	assert.Equal(t, "Maria Clara Souza", sent.Snapshot.Student.Name)
	assert.Equal(t, "750", sent.Quote.Pricing.FinalValue.String())

	state := w.State()
	assert.True(t, state.Submitted)
	assert.False(t, state.CanSubmit)
	assert.False(t, state.CanGoNext)
	require.NotNil(t, state.Receipt)
	assert.Equal(t, "enr-1", state.Receipt.EnrollmentID)
	assert.Empty(t, w.Snapshot().Student.Name, "Snapshot resets after a successful submission")
	assert.Empty(t, w.TransactionToken())

	_, err = w.SubmitForm(context.Background())
	assert.ErrorIs(t, err, domain.ErrSubmitted)
	assert.ErrorIs(t, w.SetStudent(validStudent()), domain.ErrSubmitted)
	assert.ErrorIs(t, w.NextStep(), domain.ErrSubmitted)
}

func TestWizard_SubmitFailureKeepsSnapshotAndToken(t *testing.T) {
	submitter := &fakeSubmitter{failures: 1}
	w := newTestWizard(submitter)
	require.NoError(t, w.LoadSnapshot(validSnapshot()))
	require.NoError(t, w.GoToStep(len(Steps)-1))
	before := w.Snapshot()

	_, err := w.SubmitForm(context.Background())
	require.Error(t, err)
	var subErr *domain.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.NotEmpty(t, subErr.TransactionToken)

	state := w.State()
	assert.False(t, state.Submitted)
	assert.Equal(t, StepReview, state.StepID)
	assert.Contains(t, state.Errors(), "tente novamente")
	assert.Equal(t, before, w.Snapshot(), "A failed submission must not touch the snapshot")
	assert.Equal(t, subErr.TransactionToken, w.TransactionToken())

	_, err = w.SubmitForm(context.Background())
	require.NoError(t, err)

	tokens := submitter.Tokens()
	require.Len(t, tokens, 2)
	assert.Equal(t, tokens[0], tokens[1], "A retry reuses the transaction token")
}

func TestWizard_SubmitIsSingleFlight(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{})}
	w := newTestWizard(submitter)
	require.NoError(t, w.LoadSnapshot(validSnapshot()))
	require.NoError(t, w.GoToStep(len(Steps)-1))

	done := make(chan error, 1)
	go func() {
		_, err := w.SubmitForm(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return w.State().IsSubmitting }, time.Second, time.Millisecond)

	assert.False(t, w.State().CanSubmit)
	_, err := w.SubmitForm(context.Background())
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)
	assert.ErrorIs(t, w.SetReview(domain.Review{}), domain.ErrSubmissionInFlight)

	close(submitter.block)
	require.NoError(t, <-done)
	assert.Len(t, submitter.Tokens(), 1)
}

func TestWizard_ResetRefusedWhileSubmitting(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{})}
	w := newTestWizard(submitter)
	require.NoError(t, w.LoadSnapshot(validSnapshot()))
	require.NoError(t, w.GoToStep(len(Steps)-1))

	done := make(chan error, 1)
	go func() {
		_, err := w.SubmitForm(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return w.State().IsSubmitting }, time.Second, time.Millisecond)

	assert.ErrorIs(t, w.Reset(), domain.ErrSubmissionInFlight)
	assert.ErrorIs(t, w.LoadSnapshot(validSnapshot()), domain.ErrSubmissionInFlight)
	_, err := w.SubmitForm(context.Background())
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)
	assert.True(t, w.State().IsSubmitting)
	assert.NotEmpty(t, w.TransactionToken(), "The in-flight token is kept")

	close(submitter.block)
	require.NoError(t, <-done)
	assert.Len(t, submitter.Tokens(), 1)

	require.NoError(t, w.Reset())
	assert.False(t, w.State().Submitted)
}

func TestWizard_SubmitTimeout(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{})}
	w := newTestWizard(submitter, WithSubmitTimeout(20*time.Millisecond))
	require.NoError(t, w.LoadSnapshot(validSnapshot()))
	require.NoError(t, w.GoToStep(len(Steps)-1))

	_, err := w.SubmitForm(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, w.State().IsSubmitting)
}

func TestWizard_SubmitPreconditions(t *testing.T) {
	t.Run("not on the last step", func(t *testing.T) {
		w := newTestWizard(&fakeSubmitter{})
		require.NoError(t, w.LoadSnapshot(validSnapshot()))
		_, err := w.SubmitForm(context.Background())
		assert.ErrorIs(t, err, domain.ErrStepBlocked)
	})

	t.Run("invalid step data", func(t *testing.T) {
		w := newTestWizard(&fakeSubmitter{})
		require.NoError(t, w.LoadSnapshot(validSnapshot()))
		require.NoError(t, w.GoToStep(len(Steps)-1))

		address := validSnapshot().Address
		address.State = "XX"
		require.NoError(t, w.SetAddress(address))
		assert.False(t, w.State().CanSubmit)

		_, err := w.SubmitForm(context.Background())
		var valErr *domain.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, string(StepAddress), valErr.Step)
		assert.NotEmpty(t, w.State().StepErrors[StepAddress])
	})

	t.Run("invalid pricing", func(t *testing.T) {
		w := newTestWizard(&fakeSubmitter{})
		require.NoError(t, w.LoadSnapshot(validSnapshot()))
		require.NoError(t, w.GoToStep(len(Steps)-1))
		require.NoError(t, w.AddDiscount(domain.SelectedDiscount{DiscountID: "com", AppliedPercentage: decimal.NewFromInt(40)}))

		_, err := w.SubmitForm(context.Background())
		var valErr *domain.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, string(StepDiscounts), valErr.Step)
	})
}

func TestWizard_ResetIssuesNewToken(t *testing.T) {
	tokens := []string{"tok-1", "tok-2"}
	next := 0
	submitter := &fakeSubmitter{}
	w := newTestWizard(submitter, WithTokenGenerator(func() string {
		token := tokens[next]
		next++
		return token
	}))

	for i := 0; i < 2; i++ {
		snapshot := validSnapshot()
		if i == 1 {
			snapshot.Student.CPF = otherCPF
		}
		require.NoError(t, w.LoadSnapshot(snapshot))
		require.NoError(t, w.GoToStep(len(Steps)-1))
		_, err := w.SubmitForm(context.Background())
		require.NoError(t, err)
		require.NoError(t, w.Reset())

		state := w.State()
		assert.False(t, state.Submitted)
		assert.Equal(t, 0, state.CurrentStep)
		assert.NotNil(t, w.ReferenceData(), "Reset keeps the loaded catalogs")
	}

	assert.Equal(t, []string{"tok-1", "tok-2"}, submitter.Tokens())
}

func TestWizard_WithMemStore(t *testing.T) {
	mem := store.NewMemStore()
	first := newTestWizard(mem)
	require.NoError(t, first.LoadSnapshot(validSnapshot()))
	require.NoError(t, first.GoToStep(len(Steps)-1))
	_, err := first.SubmitForm(context.Background())
	require.NoError(t, err)

	checker := NewIdentifierChecker(mem, 0, time.Second)
	second := newTestWizard(mem, WithIdentifierChecker(checker))
	require.NoError(t, second.SetStudent(validStudent()))
	status, err := second.VerifyIdentifier(context.Background())
	assert.Equal(t, IdentifierDuplicate, status)
	assert.Error(t, err)
	assert.ErrorIs(t, second.NextStep(), domain.ErrStepBlocked)
}

func TestWizard_WithEligibilityRules(t *testing.T) {
	engine := calculation.NewCalculationEngine()
	engine.SetRules(siblingRule{})
	w := New(engine, &fakeSubmitter{})
	w.SetReferenceData(testReferenceData())

	snapshot := validSnapshot()
	snapshot.Student.Siblings = 0
	require.NoError(t, w.LoadSnapshot(snapshot))

	quote := w.Quote()
	assert.False(t, quote.Pricing.IsValid)
	require.Len(t, quote.Pricing.Ignored, 1)
	assert.Equal(t, "irm", quote.Pricing.Ignored[0].DiscountID)
}

type siblingRule struct{}

func (siblingRule) Check(entry domain.DiscountCatalogEntry, snapshot domain.FormSnapshot) error {
	if entry.Category == domain.CategorySibling && snapshot.Student.Siblings == 0 {
		return errors.New("sem irmãos matriculados")
	}
	return nil
}

type testLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *testLogger) Debugf(format string, args ...any) {}
func (l *testLogger) Infof(format string, args ...any)  {}
func (l *testLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, "WARN: "+format)
}
func (l *testLogger) Errorf(format string, args ...any) {}

func (l *testLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.warnings...)
}
