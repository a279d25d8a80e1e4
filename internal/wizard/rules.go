package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rgehrsitz/matricula/internal/domain"
)

var (
	cepPattern   = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	phonePattern = regexp.MustCompile(`^(\+?55)?\(?[1-9]\d\)?9?\d{4}-?\d{4}$`)
)

var brazilianStates = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true,
	"ES": true, "GO": true, "MA": true, "MT": true, "MS": true, "MG": true, "PA": true,
	"PB": true, "PR": true, "PE": true, "PI": true, "RJ": true, "RN": true, "RS": true,
	"RO": true, "RR": true, "SC": true, "SP": true, "SE": true, "TO": true,
}

// fieldLabels maps yaml field names to the labels shown to the operator
var fieldLabels = map[string]string{
	"name":            "nome",
	"cpf":             "CPF",
	"birth_date":      "data de nascimento",
	"gender":          "sexo",
	"siblings":        "irmãos matriculados",
	"relationship":    "parentesco",
	"email":           "e-mail",
	"phone":           "telefone",
	"cep":             "CEP",
	"street":          "logradouro",
	"number":          "número",
	"complement":      "complemento",
	"neighborhood":    "bairro",
	"city":            "cidade",
	"state":           "UF",
	"series_id":       "série",
	"track_id":        "trilha",
	"school_year":     "ano letivo",
	"shift":           "turno",
	"previous_school": "escola anterior",
	"notes":           "observações",
	"confirmed":       "confirmação",
	"guardians":       "responsáveis",
}

// newValidator builds the schema validator with the Brazilian document rules
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	must(v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return domain.ValidCPF(fl.Field().String())
	}))
	must(v.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
		return cepPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}))
	must(v.RegisterValidation("uf", func(fl validator.FieldLevel) bool {
		return brazilianStates[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
	}))
	must(v.RegisterValidation("phone_br", func(fl validator.FieldLevel) bool {
		phone := strings.NewReplacer(" ", "", ".", "").Replace(fl.Field().String())
		return phonePattern.MatchString(phone)
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// structErrors validates s and renders each violation as "prefix label: message"
func structErrors(v *validator.Validate, s any, prefix string) []string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, prefix+label(fe.Field())+": "+describe(fe))
	}
	return messages
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func labels(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if i := strings.LastIndex(f, "."); i >= 0 {
			out = append(out, f[:i+1]+label(f[i+1:]))
			continue
		}
		out = append(out, label(f))
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "min":
		return fmt.Sprintf("deve ter ao menos %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("deve ter no máximo %s caracteres", fe.Param())
	case "gte":
		return fmt.Sprintf("deve ser no mínimo %s", fe.Param())
	case "lte":
		return fmt.Sprintf("deve ser no máximo %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("deve ser um de: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "e-mail inválido"
	case "cpf":
		return "CPF inválido"
	case "cep":
		return "CEP inválido"
	case "uf":
		return "UF inválida"
	case "phone_br":
		return "telefone inválido"
	default:
		return fmt.Sprintf("valor inválido (%s)", fe.Tag())
	}
}
