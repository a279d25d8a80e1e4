// Package eligibility evaluates the JSON-Logic rules attached to catalog
// discounts against the facts of an enrollment form.
package eligibility

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"
	"github.com/rgehrsitz/matricula/internal/domain"
)

// ErrRuleExecutionFailed wraps any failure of the JSON-Logic interpreter
var ErrRuleExecutionFailed = errors.New("eligibility rule execution failed")

// ErrNotEligible is returned when a rule evaluates to a falsy value
var ErrNotEligible = errors.New("não atende aos critérios de elegibilidade")

// Evaluator checks catalog entries against a snapshot.
// It satisfies calculation.RuleChecker. Its facts depend only on the
// snapshot, so a check gives the same answer whenever it runs.
type Evaluator struct{}

// NewEvaluator creates an evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Check returns nil when the entry has no rule or its rule holds
func (e *Evaluator) Check(entry domain.DiscountCatalogEntry, snapshot domain.FormSnapshot) error {
	if len(entry.Eligibility) == 0 {
		return nil
	}
	ok, err := e.Evaluate(entry.Eligibility, Facts(snapshot))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEligible
	}
	return nil
}

// Evaluate applies a rule to facts and reports its truthiness
func (e *Evaluator) Evaluate(rule map[string]any, facts map[string]any) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("%w: %v", ErrRuleExecutionFailed, r)
		}
	}()

	ruleJSON, err := json.Marshal(rule)
	if err != nil {
		return false, fmt.Errorf("%w: encode rule: %v", ErrRuleExecutionFailed, err)
	}
	dataJSON, err := json.Marshal(facts)
	if err != nil {
		return false, fmt.Errorf("%w: encode facts: %v", ErrRuleExecutionFailed, err)
	}

	var result bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &result); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRuleExecutionFailed, err)
	}
	return truthy(result.Bytes()), nil
}

// ValidateRule dry-runs a rule against empty facts so malformed catalog rules
// are caught when reference data loads.
func ValidateRule(rule map[string]any) error {
	if len(rule) == 0 {
		return nil
	}
	ruleJSON, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("%w: encode rule: %v", ErrRuleExecutionFailed, err)
	}
	if !jsonlogic.IsValid(bytes.NewReader(ruleJSON)) {
		return fmt.Errorf("%w: invalid rule %s", ErrRuleExecutionFailed, ruleJSON)
	}
	_, err = (&Evaluator{}).Evaluate(rule, Facts(domain.DefaultFormSnapshot()))
	return err
}

// Facts flattens the snapshot into the variables rules may reference, e.g.
// {"var": "student.siblings"} or {"var": "guardians.school_employee"}.
// student.age is taken at the school-age cutoff of the selected school year
// and is 0 while the year or the birth date is missing.
func Facts(snapshot domain.FormSnapshot) map[string]any {
	schoolEmployee := false
	for _, g := range snapshot.Guardians {
		if g.SchoolEmployee {
			schoolEmployee = true
			break
		}
	}
	age := 0
	if snapshot.Academic.SchoolYear > 0 {
		age = snapshot.Student.Age(domain.SchoolAgeCutoff(snapshot.Academic.SchoolYear))
	}
	return map[string]any{
		"student": map[string]any{
			"age":      age,
			"siblings": snapshot.Student.Siblings,
			"gender":   snapshot.Student.Gender,
		},
		"guardians": map[string]any{
			"count":           len(snapshot.Guardians),
			"school_employee": schoolEmployee,
		},
		"academic": map[string]any{
			"series_id":   snapshot.Academic.SeriesID,
			"track_id":    snapshot.Academic.TrackID,
			"shift":       snapshot.Academic.Shift,
			"school_year": snapshot.Academic.SchoolYear,
		},
		"discounts": map[string]any{
			"count": len(snapshot.Discounts),
		},
	}
}

// truthy follows JSON-Logic truthiness for the encoded result
func truthy(raw []byte) bool {
	var v any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
