package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Values is a raw submission keyed by field name.
type Values map[string]string

// Data holds cleaned values: string, bool, int, time.Time, or nil for an
// empty optional int or date.
type Data map[string]any

func (d Data) String(name string) string {
	switch v := d[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(DateLayout)
	default:
		return fmt.Sprint(v)
	}
}

// Clean validates values against the schema. It returns Data even when
// validation fails so forms can be re-rendered; err is Errors in that case.
func (s *Schema) Clean(values Values) (Data, error) {
	data := make(Data, len(s.fields))
	errs := Errors{}

	for _, f := range s.fields {
		v, msg := cleanField(f, strings.TrimSpace(values[f.Name]))
		if msg != "" {
			errs.Add(f.Name, msg)
			continue
		}
		data[f.Name] = v
	}

	s.resolveOthers(data, errs)

	for _, o := range s.others {
		delete(data, o.Other)
	}

	if len(errs) > 0 {
		return data, errs
	}
	return data, nil
}

func (s *Schema) resolveOthers(data Data, errs Errors) {
	for _, o := range s.others {
		if errs.Has(o.Field) {
			continue
		}
		if !isFalsy(data[o.Field]) && fmt.Sprint(data[o.Field]) != "0" {
			continue
		}

		other := data[o.Other]
		if isFalsy(other) && o.Required {
			errs.Add(o.Field, MsgOtherRequired)
			continue
		}

		if text, ok := other.(string); ok {
			data[o.Field] = "Other - " + text
		} else {
			data[o.Field] = other
		}
	}
}

func cleanField(f Field, raw string) (any, string) {
	if f.Kind == KindBool {
		checked := parseBool(raw)
		if f.Required && !checked {
			return nil, MsgRequired
		}
		return checked, ruleError(checked, f.Rules)
	}

	if raw == "" {
		if f.Required {
			return nil, MsgRequired
		}
		switch f.Kind {
		case KindInt, KindDate:
			return nil, ""
		default:
			return "", ""
		}
	}

	var v any = raw
	switch f.Kind {
	case KindEmail:
		if err := validation.Validate(raw, is.EmailFormat); err != nil {
			return nil, MsgEmail
		}
	case KindURL:
		if err := validation.Validate(raw, is.URL); err != nil {
			return nil, MsgURL
		}
	case KindChoice:
		if err := validation.Validate(raw, validation.In(f.choiceValues()...)); err != nil {
			return nil, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw)
		}
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, MsgInt
		}
		v = n
	case KindDate:
		d, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, MsgDate
		}
		v = d
	}

	return v, ruleError(v, f.Rules)
}

func ruleError(v any, rules []validation.Rule) string {
	if len(rules) == 0 {
		return ""
	}
	if err := validation.Validate(v, rules...); err != nil {
		return err.Error()
	}
	return ""
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}

func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case int:
		return x == 0
	case time.Time:
		return x.IsZero()
	default:
		return false
	}
}
