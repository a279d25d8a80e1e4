// Package api exposes the pricing engine, catalogs, uniqueness lookup and
// enrollment submission over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/wizard"
)

// IdempotencyHeader carries the client's transaction token on enrollment submission
const IdempotencyHeader = "Idempotency-Key"

// EnrollmentStore persists enrollments and answers uniqueness lookups
type EnrollmentStore interface {
	wizard.Submitter
	wizard.UniquenessOracle
}

// Server holds the dependencies shared by every handler
type Server struct {
	engine        *calculation.CalculationEngine
	refs          *domain.ReferenceData
	store         EnrollmentStore
	logger        calculation.Logger
	lookupTimeout time.Duration
	submitTimeout time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and error logger
func WithLogger(l calculation.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLookupTimeout bounds each uniqueness lookup
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Server) { s.lookupTimeout = d }
}

// WithSubmitTimeout bounds each enrollment write
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Server) { s.submitTimeout = d }
}

// NewServer creates a server over already loaded reference data
func NewServer(engine *calculation.CalculationEngine, refs *domain.ReferenceData, store EnrollmentStore, opts ...Option) *Server {
	if engine == nil {
		engine = calculation.NewCalculationEngine()
	}
	s := &Server{
		engine:        engine,
		refs:          refs,
		store:         store,
		logger:        calculation.NopLogger{},
		lookupTimeout: 2 * time.Second,
		submitTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds a gin engine with recovery, request logging and every route
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the /api group on r
func (s *Server) RegisterRoutes(r gin.IRouter) {
	apiGroup := r.Group("/api")
	{
		catalog := apiGroup.Group("/catalog")
		{
			catalog.GET("/discounts", s.listDiscounts)
			catalog.GET("/series", s.listSeries)
			catalog.GET("/tracks", s.listTracks)
		}

		apiGroup.POST("/pricing/quote", s.quote)
		apiGroup.GET("/approval", s.approval)
		apiGroup.GET("/identifiers/:cpf", s.identifier)
		apiGroup.POST("/enrollments", s.enroll)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Infof("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
