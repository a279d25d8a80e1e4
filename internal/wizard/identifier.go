package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rgehrsitz/matricula/internal/calculation"
)

// UniquenessOracle answers whether an identifier already has an enrollment
type UniquenessOracle interface {
	Exists(ctx context.Context, identifier string) (bool, error)
}

// IdentifierStatus is the outcome of the latest uniqueness lookup
type IdentifierStatus int

const (
	IdentifierUnchecked IdentifierStatus = iota
	IdentifierPending
	IdentifierAvailable
	IdentifierDuplicate
	// IdentifierUnknown means the lookup failed or timed out; it never blocks navigation
	IdentifierUnknown
)

func (s IdentifierStatus) String() string {
	switch s {
	case IdentifierPending:
		return "pending"
	case IdentifierAvailable:
		return "available"
	case IdentifierDuplicate:
		return "duplicate"
	case IdentifierUnknown:
		return "unknown"
	default:
		return "unchecked"
	}
}

// MarshalText renders the status by name
func (s IdentifierStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IdentifierState is the wizard's view of the identifier check
type IdentifierState struct {
	Value      string           `json:"value,omitempty"`
	Status     IdentifierStatus `json:"status"`
	Generation uint64           `json:"generation"`
	Message    string           `json:"message,omitempty"`
}

// LookupResult is delivered once per lookup that is still current when it completes
type LookupResult struct {
	Generation uint64
	Identifier string
	Status     IdentifierStatus
	Err        error
}

// IdentifierChecker debounces uniqueness lookups. Each Schedule bumps the
// generation, stops the pending timer and cancels the in-flight lookup; a
// result whose generation is no longer current is dropped.
type IdentifierChecker struct {
	oracle   UniquenessOracle
	interval time.Duration
	timeout  time.Duration
	logger   calculation.Logger

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	onResult   func(LookupResult)
}

// NewIdentifierChecker creates a checker. interval is the quiet period before a
// lookup is issued; timeout bounds each lookup.
func NewIdentifierChecker(oracle UniquenessOracle, interval, timeout time.Duration) *IdentifierChecker {
	return &IdentifierChecker{
		oracle:   oracle,
		interval: interval,
		timeout:  timeout,
		logger:   calculation.NopLogger{},
	}
}

// SetLogger sets the checker logger; nil restores the no-op logger
func (c *IdentifierChecker) SetLogger(l calculation.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l == nil {
		l = calculation.NopLogger{}
	}
	c.logger = l
}

// OnResult registers the callback that receives current results. It runs on
// the lookup goroutine.
func (c *IdentifierChecker) OnResult(fn func(LookupResult)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResult = fn
}

// Schedule invalidates any earlier lookup and issues a new one for identifier
// after the quiet interval. It returns the new generation.
func (c *IdentifierChecker) Schedule(identifier string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.invalidateLocked()
	c.timer = time.AfterFunc(c.interval, func() {
		c.run(gen, identifier)
	})
	return gen
}

// CheckNow invalidates any earlier lookup and runs one synchronously
func (c *IdentifierChecker) CheckNow(ctx context.Context, identifier string) LookupResult {
	return c.Check(ctx, c.Begin(), identifier)
}

// Begin invalidates any earlier lookup and reserves a generation for Check
func (c *IdentifierChecker) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidateLocked()
}

// Check runs the lookup for a generation reserved with Begin. If the
// generation was superseded first, the result is Unknown with context.Canceled.
func (c *IdentifierChecker) Check(ctx context.Context, gen uint64, identifier string) LookupResult {
	return c.lookup(ctx, gen, identifier)
}

// Cancel invalidates the pending and in-flight lookups without issuing a new one
func (c *IdentifierChecker) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

// Generation returns the current generation
func (c *IdentifierChecker) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *IdentifierChecker) invalidateLocked() uint64 {
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.generation
}

func (c *IdentifierChecker) run(gen uint64, identifier string) {
	result := c.lookup(context.Background(), gen, identifier)

	c.mu.Lock()
	current := gen == c.generation
	callback := c.onResult
	logger := c.logger
	c.mu.Unlock()

	if !current {
		logger.Debugf("discarding stale identifier lookup generation %d", gen)
		return
	}
	if callback != nil {
		callback(result)
	}
}

func (c *IdentifierChecker) lookup(parent context.Context, gen uint64, identifier string) LookupResult {
	var ctx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return LookupResult{Generation: gen, Identifier: identifier, Status: IdentifierUnknown, Err: context.Canceled}
	}
	c.cancel = cancel
	logger := c.logger
	c.mu.Unlock()

	result := LookupResult{Generation: gen, Identifier: identifier}
	if c.oracle == nil {
		result.Status = IdentifierUnknown
		result.Err = errors.New("no uniqueness oracle configured")
		return result
	}

	exists, err := c.oracle.Exists(ctx, identifier)
	switch {
	case err != nil:
		result.Status = IdentifierUnknown
		result.Err = err
		logger.Warnf("identifier lookup failed, treating as unknown: %v", err)
	case exists:
		result.Status = IdentifierDuplicate
	default:
		result.Status = IdentifierAvailable
	}
	return result
}
