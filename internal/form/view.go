package form

import "time"

// FieldView is a field prepared for template rendering.
type FieldView struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Value    string
	Checked  bool
	Choices  []Choice
	Help     string
	Errors   []string
	IsOther  bool
}

// Bind pairs each field with the submitted value and its errors.
func (s *Schema) Bind(values Values, errs Errors) []FieldView {
	out := make([]FieldView, 0, len(s.fields))
	for _, f := range s.fields {
		raw := values[f.Name]
		out = append(out, FieldView{
			Name:     f.Name,
			Label:    f.DisplayLabel(),
			Type:     f.Kind.String(),
			Required: f.Required,
			Value:    raw,
			Checked:  f.Kind == KindBool && parseBool(raw),
			Choices:  f.Choices,
			Help:     f.Help,
			Errors:   errs[f.Name],
			IsOther:  s.IsOther(f.Name),
		})
	}
	return out
}

// LabelledValue is one row of a submission summary.
type LabelledValue struct {
	Name  string
	Label string
	Value any
}

// Summary lists cleaned values with their labels in field order, leaving
// out companion fields. Choice values are shown by label and dates in
// DateLayout.
func (s *Schema) Summary(data Data) []LabelledValue {
	out := make([]LabelledValue, 0, len(s.fields))
	for _, f := range s.fields {
		if s.IsOther(f.Name) {
			continue
		}
		v, ok := data[f.Name]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case string:
			if f.Kind == KindChoice {
				v = f.ChoiceLabel(x)
			}
		case time.Time:
			v = x.Format(DateLayout)
		}
		out = append(out, LabelledValue{Name: f.Name, Label: f.DisplayLabel(), Value: v})
	}
	return out
}
