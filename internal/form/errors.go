package form

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	MsgRequired      = "This field is required."
	MsgOtherRequired = "This field is required"
	MsgEmail         = "Enter a valid email address."
	MsgURL           = "Enter a valid URL."
	MsgInt           = "Enter a whole number."
	MsgDate          = "Enter a valid date."
)

var ErrInvalidSchema = errors.New("invalid form schema")

// Errors maps field names to their messages. Form-wide messages use the
// empty key.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "form"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e[k], "; ")))
	}
	return strings.Join(parts, ", ")
}

// AsErrors extracts field errors from err.
func AsErrors(err error) (Errors, bool) {
	var fe Errors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
