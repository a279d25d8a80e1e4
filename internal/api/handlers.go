package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/output"
	"github.com/rgehrsitz/matricula/internal/wizard"
	"github.com/shopspring/decimal"
)

var contentTypes = map[string]string{
	"console": "text/plain; charset=utf-8",
	"csv":     "text/csv; charset=utf-8",
	"xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) listDiscounts(c *gin.Context) {
	if s.refs == nil {
		s.referenceUnavailable(c)
		return
	}
	if c.Query("all") == "true" {
		c.JSON(http.StatusOK, s.refs.Discounts.Entries())
		return
	}
	c.JSON(http.StatusOK, s.refs.Discounts.ActiveEntries())
}

func (s *Server) listSeries(c *gin.Context) {
	if s.refs == nil {
		s.referenceUnavailable(c)
		return
	}
	c.JSON(http.StatusOK, s.refs.SortedSeries())
}

func (s *Server) listTracks(c *gin.Context) {
	if s.refs == nil {
		s.referenceUnavailable(c)
		return
	}
	tracks := s.refs.Tracks
	if tracks == nil {
		tracks = []domain.Track{}
	}
	c.JSON(http.StatusOK, tracks)
}

// quote prices a request. ?format= selects a proposal formatter; JSON is the default.
func (s *Server) quote(c *gin.Context) {
	if s.refs == nil {
		s.referenceUnavailable(c)
		return
	}
	var req calculation.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote := s.engine.Quote(req, s.refs)
	proposal := output.NewProposal(quote, req.Snapshot(), s.refs, time.Now())

	format := c.DefaultQuery("format", "json")
	if format == "json" {
		c.JSON(http.StatusOK, proposal)
		return
	}
	formatter := output.GetFormatterByName(format)
	if formatter == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format: " + format})
		return
	}
	data, err := formatter.Format(proposal)
	if err != nil {
		s.logger.Errorf("failed to render %s proposal: %v", format, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render proposal"})
		return
	}
	contentType, ok := contentTypes[formatter.Name()]
	if !ok {
		contentType = "application/json"
	}
	if formatter.Name() == "xlsx" {
		c.Header("Content-Disposition", "attachment; filename=proposta_"+time.Now().Format("20060102_150405")+".xlsx")
	}
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) approval(c *gin.Context) {
	raw := c.Query("percentage")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percentage is required"})
		return
	}
	percentage, err := decimal.NewFromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percentage must be a number"})
		return
	}
	c.JSON(http.StatusOK, calculation.ClassifyApproval(percentage))
}

type identifierResponse struct {
	CPF     string                  `json:"cpf"`
	Status  wizard.IdentifierStatus `json:"status"`
	Message string                  `json:"message,omitempty"`
}

// identifier answers the uniqueness lookup. A failed lookup is reported as
// unknown rather than as an error so clients keep the intake moving.
func (s *Server) identifier(c *gin.Context) {
	cpf := domain.NormalizeCPF(c.Param("cpf"))
	if !domain.ValidCPF(cpf) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CPF inválido"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.lookupTimeout)
	defer cancel()
	exists, err := s.store.Exists(ctx, cpf)

	resp := identifierResponse{CPF: domain.FormatCPF(cpf)}
	switch {
	case err != nil:
		s.logger.Warnf("identifier lookup for %s failed: %v", resp.CPF, err)
		resp.Status = wizard.IdentifierUnknown
		resp.Message = "não foi possível verificar o CPF"
	case exists:
		resp.Status = wizard.IdentifierDuplicate
		resp.Message = (&domain.DuplicateIdentifierError{Field: "CPF", Identifier: resp.CPF}).Error()
	default:
		resp.Status = wizard.IdentifierAvailable
	}
	c.JSON(http.StatusOK, resp)
}

type enrollmentResponse struct {
	EnrollmentID     string              `json:"enrollmentId"`
	TransactionToken string              `json:"transactionToken"`
	ApprovalLevel    domain.ApprovalTier `json:"approvalLevel"`
	FinalValue       decimal.Decimal     `json:"finalValue"`
	Replayed         bool                `json:"replayed"`
}

// enroll runs a complete snapshot through the wizard's gates and submits it.
// The Idempotency-Key header becomes the transaction token, so a client retry
// replays the original receipt.
func (s *Server) enroll(c *gin.Context) {
	token := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": IdempotencyHeader + " header is required"})
		return
	}
	var snapshot domain.FormSnapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w := wizard.New(s.engine, s.store,
		wizard.WithLogger(s.logger),
		wizard.WithSubmitTimeout(s.submitTimeout),
		wizard.WithTokenGenerator(func() string { return token }),
	)
	w.SetReferenceData(s.refs)
	if err := w.LoadSnapshot(snapshot); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := w.GoToStep(len(wizard.Steps) - 1); err != nil {
		s.rejectEnrollment(c, w, err)
		return
	}
	receipt, err := w.SubmitForm(c.Request.Context())
	if err != nil {
		s.rejectEnrollment(c, w, err)
		return
	}

	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, enrollmentResponse{
		EnrollmentID:     receipt.EnrollmentID,
		TransactionToken: receipt.TransactionToken,
		ApprovalLevel:    receipt.ApprovalLevel,
		FinalValue:       receipt.FinalValue,
		Replayed:         receipt.Replayed,
	})
}

func (s *Server) rejectEnrollment(c *gin.Context, w *wizard.Wizard, err error) {
	state := w.State()
	var validationErr *domain.ValidationError
	var duplicateErr *domain.DuplicateIdentifierError
	var submissionErr *domain.SubmissionError

	switch {
	case errors.Is(err, domain.ErrReferenceDataUnavailable):
		s.referenceUnavailable(c)
	case errors.Is(err, domain.ErrDuplicateRecord), errors.As(err, &duplicateErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStepBlocked), errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      err.Error(),
			"stepErrors": state.StepErrors,
			"quote":      state.Quote,
		})
	case errors.As(err, &submissionErr):
		s.logger.Errorf("enrollment %s failed: %v", submissionErr.TransactionToken, submissionErr.Err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "falha ao gravar a matrícula; tente novamente", "transactionToken": submissionErr.TransactionToken})
	default:
		s.logger.Errorf("enrollment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) referenceUnavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrReferenceDataUnavailable.Error()})
}
