package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (QuoteTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("add_discount", createAddDiscount)
	registry.Register("remove_discount", createRemoveDiscount)
	registry.Register("clear_discounts", createClearDiscounts)
	registry.Register("set_track", createSetTrack)
	registry.Register("set_siblings", createSetSiblings)
	registry.Register("set_employee", createSetSchoolEmployee)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (QuoteTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the names of all registered transforms, sorted.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name" or "transform_name:param1=value1,param2=value2"
// Example: "add_discount:id=irm,percentage=15"
func (r *TransformRegistry) ParseTransformSpec(spec string) (QuoteTransform, error) {
	name, paramsStr, _ := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	paramsStr = strings.TrimSpace(paramsStr)
	if name == "" {
		return nil, fmt.Errorf("invalid transform spec %q: missing name", spec)
	}

	params := make(map[string]string)
	if paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			k, v, ok := strings.Cut(paramPair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}

	return r.Create(name, params)
}

// ParseAll parses every spec in order
func (r *TransformRegistry) ParseAll(specs []string) ([]QuoteTransform, error) {
	transforms := make([]QuoteTransform, 0, len(specs))
	for _, spec := range specs {
		t, err := r.ParseTransformSpec(spec)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	return transforms, nil
}

// parsePercentage accepts "12.5", "12,5" and "12,5%"
func parsePercentage(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSuffix(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), "%")
	return decimal.NewFromString(raw)
}

// Factory functions for each transform

func createAddDiscount(params map[string]string) (QuoteTransform, error) {
	id, ok := params["id"]
	if !ok {
		return nil, fmt.Errorf("add_discount requires 'id' parameter")
	}

	pctStr, ok := params["percentage"]
	if !ok {
		return nil, fmt.Errorf("add_discount requires 'percentage' parameter")
	}

	pct, err := parsePercentage(pctStr)
	if err != nil {
		return nil, fmt.Errorf("invalid percentage value: %w", err)
	}

	return &AddDiscount{DiscountID: id, Percentage: pct}, nil
}

func createRemoveDiscount(params map[string]string) (QuoteTransform, error) {
	id, ok := params["id"]
	if !ok {
		return nil, fmt.Errorf("remove_discount requires 'id' parameter")
	}
	return &RemoveDiscount{DiscountID: id}, nil
}

func createClearDiscounts(map[string]string) (QuoteTransform, error) {
	return &ClearDiscounts{}, nil
}

func createSetTrack(params map[string]string) (QuoteTransform, error) {
	track, ok := params["track"]
	if !ok {
		return nil, fmt.Errorf("set_track requires 'track' parameter")
	}
	return &SetTrack{TrackID: track}, nil
}

func createSetSiblings(params map[string]string) (QuoteTransform, error) {
	countStr, ok := params["count"]
	if !ok {
		return nil, fmt.Errorf("set_siblings requires 'count' parameter")
	}

	count, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("invalid count value: %w", err)
	}

	return &SetSiblings{Count: count}, nil
}

func createSetSchoolEmployee(params map[string]string) (QuoteTransform, error) {
	employee := true
	if v, ok := params["value"]; ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value: %w", err)
		}
		employee = parsed
	}
	return &SetSchoolEmployee{Employee: employee}, nil
}
