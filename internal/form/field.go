package form

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Kind int

const (
	KindText Kind = iota
	KindTextarea
	KindEmail
	KindURL
	KindBool
	KindChoice
	KindDate
	KindInt
)

// DateLayout is the accepted input layout for KindDate fields.
const DateLayout = "2006-01-02"

func (k Kind) String() string {
	switch k {
	case KindTextarea:
		return "textarea"
	case KindEmail:
		return "email"
	case KindURL:
		return "url"
	case KindBool:
		return "checkbox"
	case KindChoice:
		return "select"
	case KindDate:
		return "date"
	case KindInt:
		return "number"
	default:
		return "text"
	}
}

type Choice struct {
	Value string
	Label string
}

type Field struct {
	Name  string
	Label string
	Kind  Kind
	// Required on a KindBool field means the box must be ticked.
	Required bool
	Choices  []Choice
	Help     string
	// Rules run against the typed value after the Kind checks pass.
	Rules []validation.Rule
}

// DisplayLabel returns Label, or a label derived from Name
// ("resource_url" becomes "Resource url").
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	s := strings.ReplaceAll(f.Name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (f Field) choiceValues() []any {
	out := make([]any, len(f.Choices))
	for i, c := range f.Choices {
		out[i] = c.Value
	}
	return out
}

// ChoiceLabel returns the label for value, or value itself.
func (f Field) ChoiceLabel(value string) string {
	for _, c := range f.Choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}
