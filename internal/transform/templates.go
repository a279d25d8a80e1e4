package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/matricula/internal/calculation"
	"github.com/rgehrsitz/matricula/internal/domain"
)

// TemplateRegistry manages built-in scenario templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []QuoteTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBuiltInTemplates derives templates from the catalogs: one per active
// discount at its maximum percentage, one per track, plus the family variants.
func CreateBuiltInTemplates(refs *domain.ReferenceData) *TemplateRegistry {
	registry := NewTemplateRegistry()

	registry.Register(Template{
		Name:        "sem_descontos",
		Description: "Sem nenhum desconto",
		Transforms:  []QuoteTransform{&ClearDiscounts{}},
	})

	if refs == nil {
		return registry
	}

	var employeeDiscounts []QuoteTransform
	for _, entry := range refs.Discounts.ActiveEntries() {
		add := &AddDiscount{DiscountID: entry.ID, Percentage: entry.MaxPercentage}
		registry.Register(Template{
			Name:        "max_" + entry.ID,
			Description: fmt.Sprintf("%s no máximo (%s%%)", entry.Name, entry.MaxPercentage.String()),
			Transforms:  []QuoteTransform{add},
		})
		if entry.Category == domain.CategoryEmployee {
			employeeDiscounts = append(employeeDiscounts, add)
		}
	}

	for _, track := range refs.Tracks {
		registry.Register(Template{
			Name:        "trilha_" + track.ID,
			Description: fmt.Sprintf("Trilha %s (CAP %s%%)", track.Name, track.CapMaximum.String()),
			Transforms:  []QuoteTransform{&SetTrack{TrackID: track.ID}},
		})
	}

	if len(employeeDiscounts) > 0 {
		registry.Register(Template{
			Name:        "filho_funcionario",
			Description: "Responsável funcionário com o desconto de funcionário no máximo",
			Transforms:  append([]QuoteTransform{&SetSchoolEmployee{Employee: true}}, employeeDiscounts...),
		})
	}

	return registry
}

// ApplyTemplate applies a template to a base request
func ApplyTemplate(base calculation.QuoteRequest, refs *domain.ReferenceData, template Template) (calculation.QuoteRequest, error) {
	return ApplyTransforms(base, refs, template.Transforms)
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Modelos disponíveis:\n\n")

	categories := map[string][]Template{}
	order := []string{"Descontos", "Trilhas", "Família"}
	for _, name := range registry.List() {
		template := registry.templates[name]
		switch {
		case strings.HasPrefix(name, "max_"), name == "sem_descontos":
			categories["Descontos"] = append(categories["Descontos"], template)
		case strings.HasPrefix(name, "trilha_"):
			categories["Trilhas"] = append(categories["Trilhas"], template)
		default:
			categories["Família"] = append(categories["Família"], template)
		}
	}

	for _, category := range order {
		templates := categories[category]
		if len(templates) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s:\n", category))
		for _, t := range templates {
			sb.WriteString(fmt.Sprintf("  %-24s %s\n", t.Name, t.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Uso:\n")
	sb.WriteString("  matricula compare pacotes.yaml --with max_pont,trilha_integral\n")

	return sb.String()
}
