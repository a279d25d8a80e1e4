package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/compare"
	"github.com/rgehrsitz/matricula/internal/domain"
	"github.com/rgehrsitz/matricula/internal/eligibility"
	"github.com/rgehrsitz/matricula/internal/transform"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Settings is the application configuration file
type Settings struct {
	ReferenceFile    string             `yaml:"reference_file"`
	ReferenceTimeout time.Duration      `yaml:"reference_timeout"`
	LookupTimeout    time.Duration      `yaml:"lookup_timeout"`
	DebounceInterval time.Duration      `yaml:"debounce_interval"`
	SubmitTimeout    time.Duration      `yaml:"submit_timeout"`
	DatabaseDSN      string             `yaml:"database_dsn"`
	HTTPAddress      string             `yaml:"http_address"`
	Policy           calculation.Policy `yaml:"policy"`
}

// DefaultSettings returns the settings used when no file is given
func DefaultSettings() Settings {
	return Settings{
		ReferenceFile:    "reference.yaml",
		ReferenceTimeout: 10 * time.Second,
		LookupTimeout:    3 * time.Second,
		DebounceInterval: 400 * time.Millisecond,
		SubmitTimeout:    15 * time.Second,
		HTTPAddress:      ":8080",
		Policy:           calculation.DefaultPolicy(),
	}
}

// ReferenceFile is the on-disk layout of the reference catalogs
type ReferenceFile struct {
	Discounts []domain.DiscountCatalogEntry `yaml:"discounts"`
	Series    []domain.Series               `yaml:"series"`
	Tracks    []domain.Track                `yaml:"tracks"`
}

// InputParser handles parsing of settings, reference data and request files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadSettings reads settings from YAML, filling unset values from DefaultSettings
func (ip *InputParser) LoadSettings(filename string) (*Settings, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateSettings(&settings); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return &settings, nil
}

// ValidateSettings checks timeouts and policy values
func (ip *InputParser) ValidateSettings(settings *Settings) error {
	if settings.ReferenceFile == "" {
		return fmt.Errorf("reference file is required")
	}
	if settings.ReferenceTimeout <= 0 {
		return fmt.Errorf("reference timeout must be positive")
	}
	if settings.LookupTimeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive")
	}
	if settings.DebounceInterval < 0 {
		return fmt.Errorf("debounce interval cannot be negative")
	}
	if settings.SubmitTimeout <= 0 {
		return fmt.Errorf("submit timeout must be positive")
	}
	return ip.validatePolicy(&settings.Policy)
}

func (ip *InputParser) validatePolicy(policy *calculation.Policy) error {
	if policy.DefaultCapMaximum.IsNegative() {
		return fmt.Errorf("default cap maximum cannot be negative")
	}
	if policy.Installments < 0 || policy.Installments > 24 {
		return fmt.Errorf("installments must be between 0 and 24 (0 uses the default)")
	}
	for _, category := range policy.FullScholarshipCategories {
		if !category.Known() {
			return fmt.Errorf("unknown full scholarship category: %s", category)
		}
	}
	return nil
}

// LoadReferenceData loads and validates the reference catalogs
func (ip *InputParser) LoadReferenceData(filename string) (*domain.ReferenceData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseReferenceData(data)
}

// ParseReferenceData decodes and validates reference catalogs from YAML bytes
func (ip *InputParser) ParseReferenceData(data []byte) (*domain.ReferenceData, error) {
	var file ReferenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	refs, err := ip.ValidateReferenceFile(&file)
	if err != nil {
		return nil, fmt.Errorf("reference data validation failed: %w", err)
	}
	return refs, nil
}

// ValidateReferenceFile enforces catalog invariants and builds the indexed reference data
func (ip *InputParser) ValidateReferenceFile(file *ReferenceFile) (*domain.ReferenceData, error) {
	catalog, err := domain.NewDiscountCatalog(file.Discounts)
	if err != nil {
		return nil, err
	}
	for _, entry := range file.Discounts {
		if err := eligibility.ValidateRule(entry.Eligibility); err != nil {
			return nil, fmt.Errorf("discount %s eligibility: %w", entry.ID, err)
		}
	}

	if len(file.Series) == 0 {
		return nil, fmt.Errorf("no series provided")
	}
	seenSeries := make(map[string]bool, len(file.Series))
	for i, series := range file.Series {
		if err := ip.validateSeries(series); err != nil {
			return nil, fmt.Errorf("series %d (%s) validation failed: %w", i, series.Name, err)
		}
		if seenSeries[series.ID] {
			return nil, fmt.Errorf("duplicate series id %s", series.ID)
		}
		seenSeries[series.ID] = true
	}

	if len(file.Tracks) == 0 {
		return nil, fmt.Errorf("no tracks provided")
	}
	seenTracks := make(map[string]bool, len(file.Tracks))
	for i, track := range file.Tracks {
		if err := ip.validateTrack(track); err != nil {
			return nil, fmt.Errorf("track %d (%s) validation failed: %w", i, track.Name, err)
		}
		if seenTracks[track.ID] {
			return nil, fmt.Errorf("duplicate track id %s", track.ID)
		}
		seenTracks[track.ID] = true
	}

	return &domain.ReferenceData{
		Discounts: catalog,
		Series:    file.Series,
		Tracks:    file.Tracks,
		LoadedAt:  time.Now(),
	}, nil
}

func (ip *InputParser) validateSeries(series domain.Series) error {
	if series.ID == "" {
		return fmt.Errorf("id is required")
	}
	if series.Name == "" {
		return fmt.Errorf("name is required")
	}
	if series.BaseMonthlyValue.IsNegative() {
		return fmt.Errorf("base monthly value cannot be negative")
	}
	if series.MaterialValue.IsNegative() {
		return fmt.Errorf("material value cannot be negative")
	}
	return nil
}

var maxTrackCap = decimal.NewFromInt(200)

func (ip *InputParser) validateTrack(track domain.Track) error {
	if track.ID == "" {
		return fmt.Errorf("id is required")
	}
	if track.Name == "" {
		return fmt.Errorf("name is required")
	}
	if track.CapMaximum.IsNegative() || track.CapMaximum.GreaterThan(maxTrackCap) {
		return fmt.Errorf("cap maximum must be between 0 and 200")
	}
	return nil
}

// LoadQuoteRequest reads a standalone pricing request
func (ip *InputParser) LoadQuoteRequest(filename string) (*calculation.QuoteRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var req calculation.QuoteRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if req.SeriesID == "" {
		return nil, fmt.Errorf("series_id is required")
	}
	return &req, nil
}

// LoadSnapshot reads a complete enrollment form for non-interactive intake
func (ip *InputParser) LoadSnapshot(filename string) (*domain.FormSnapshot, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	snapshot := domain.DefaultFormSnapshot()
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &snapshot, nil
}

// LoadComparison reads a base quote request and the discount packages to compare with it.
// Scenarios may be empty when templates are supplied on the command line.
func (ip *InputParser) LoadComparison(filename string) (*compare.Request, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var req compare.Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if req.Base.SeriesID == "" {
		return nil, fmt.Errorf("base.series_id is required")
	}
	registry := transform.NewTransformRegistry()
	for _, scenario := range req.Scenarios {
		if _, err := registry.ParseAll(scenario.Transforms); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
	}
	return &req, nil
}
