package form

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OtherField pairs a primary field with the companion holding the user's
// "other" value. Required mirrors the primary field and makes an empty
// companion an error when the primary asks for it.
type OtherField struct {
	Field    string
	Other    string
	Required bool
}

type Schema struct {
	name   string
	fields []Field
	index  map[string]int
	others []OtherField
}

// NewSchema checks that every OtherField names two distinct declared fields.
func NewSchema(name string, fields []Field, others ...OtherField) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
		others: others,
	}

	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: %s: field %d has no name", ErrInvalidSchema, name, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidSchema, name, f.Name)
		}
		s.index[f.Name] = i
	}

	names := make([]any, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	for _, o := range others {
		err := validation.ValidateStruct(&o,
			validation.Field(&o.Field, validation.Required, validation.In(names...)),
			validation.Field(&o.Other, validation.Required, validation.In(names...), validation.NotIn(o.Field)),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: other field %q/%q: %v", ErrInvalidSchema, name, o.Field, o.Other, err)
		}
	}

	return s, nil
}

// MustSchema is NewSchema for package-level declarations.
func MustSchema(name string, fields []Field, others ...OtherField) *Schema {
	s, err := NewSchema(name, fields, others...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

func (s *Schema) Fields() []Field { return s.fields }

func (s *Schema) Others() []OtherField { return s.others }

func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// IsOther reports whether name is a declared companion field.
func (s *Schema) IsOther(name string) bool {
	for _, o := range s.others {
		if o.Other == name {
			return true
		}
	}
	return false
}

// With returns a copy of s with rules appended to the named field.
func (s *Schema) With(name string, rules ...validation.Rule) *Schema {
	i, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("form %s: no field %q", s.name, name))
	}

	cp := *s
	cp.fields = make([]Field, len(s.fields))
	copy(cp.fields, s.fields)

	f := cp.fields[i]
	f.Rules = append(append([]validation.Rule(nil), f.Rules...), rules...)
	cp.fields[i] = f
	return &cp
}
