// Package refdata loads the discount, series and track catalogs an intake
// session prices against.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/config"
	"github.com/rgehrsitz/matricula/internal/domain"
)

// Source provides reference catalogs
type Source interface {
	Load(ctx context.Context) (*domain.ReferenceData, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (*domain.ReferenceData, error)

// Load calls f(ctx)
func (f SourceFunc) Load(ctx context.Context) (*domain.ReferenceData, error) {
	return f(ctx)
}

// FileSource reads catalogs from a YAML file
type FileSource struct {
	Path   string
	Parser *config.InputParser
}

// NewFileSource creates a YAML file source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, Parser: config.NewInputParser()}
}

// Load parses and validates the file. It returns early when ctx is already done.
func (fs *FileSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parser := fs.Parser
	if parser == nil {
		parser = config.NewInputParser()
	}
	return parser.LoadReferenceData(fs.Path)
}

func (fs *FileSource) String() string {
	return "file:" + fs.Path
}

// StaticSource serves catalogs already in memory
type StaticSource struct {
	Data *domain.ReferenceData
}

// Load returns the held catalogs
func (ss StaticSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	if ss.Data == nil {
		return nil, errors.New("no reference data configured")
	}
	return ss.Data, nil
}

// Loader applies a timeout to a Source and reports every failure as a *domain.DataError
type Loader struct {
	Source  Source
	Timeout time.Duration
	Name    string
	Logger  calculation.Logger
}

// NewLoader creates a loader around src
func NewLoader(src Source, timeout time.Duration) *Loader {
	name := "source"
	if s, ok := src.(fmt.Stringer); ok {
		name = s.String()
	}
	return &Loader{Source: src, Timeout: timeout, Name: name, Logger: calculation.NopLogger{}}
}

// SetLogger sets the loader logger; nil restores the no-op logger
func (l *Loader) SetLogger(logger calculation.Logger) {
	if logger == nil {
		logger = calculation.NopLogger{}
	}
	l.Logger = logger
}

type loadResult struct {
	refs *domain.ReferenceData
	err  error
}

// Load fetches the catalogs, giving up after Timeout. A Source that ignores its
// context is abandoned rather than waited on.
func (l *Loader) Load(ctx context.Context) (*domain.ReferenceData, error) {
	if l.Source == nil {
		return nil, &domain.DataError{Source: l.Name, Err: errors.New("no source configured")}
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	started := time.Now()
	done := make(chan loadResult, 1)
	go func() {
		refs, err := l.Source.Load(ctx)
		done <- loadResult{refs: refs, err: err}
	}()

	var res loadResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = loadResult{err: ctx.Err()}
	}

	if res.err == nil && res.refs == nil {
		res.err = errors.New("source returned no data")
	}
	if res.err != nil {
		l.logger().Errorf("reference data load from %s failed: %v", l.Name, res.err)
		var dataErr *domain.DataError
		if errors.As(res.err, &dataErr) {
			return nil, res.err
		}
		return nil, &domain.DataError{Source: l.Name, Err: res.err}
	}

	l.logger().Infof("reference data loaded from %s in %s: %d discounts, %d series, %d tracks",
		l.Name, time.Since(started).Round(time.Millisecond), res.refs.Discounts.Len(), len(res.refs.Series), len(res.refs.Tracks))
	return res.refs, nil
}

func (l *Loader) logger() calculation.Logger {
	if l.Logger == nil {
		return calculation.NopLogger{}
	}
	return l.Logger
}
