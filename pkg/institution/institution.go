package institution

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// RejectionMessage is the field error attached to unrecognised addresses.
const RejectionMessage = "Sorry, this is not a recognised Australian institution email address."

var ErrEmptyList = errors.New("institution list is empty")

//go:embed institutions.yaml
var embedded []byte

type Institution struct {
	Name   string `yaml:"name" json:"name"`
	Domain string `yaml:"domain" json:"domain"`
}

type list struct {
	Institutions []Institution `yaml:"institutions"`
}

// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	institutions []Institution
	domains      map[string]struct{}
}

// Parse builds a Matcher from a YAML document with an institutions list.
func Parse(data []byte) (*Matcher, error) {
	var l list
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse institution list: %w", err)
	}

	m := &Matcher{domains: make(map[string]struct{}, len(l.Institutions))}
	for _, inst := range l.Institutions {
		d := normalise(inst.Domain)
		if d == "" {
			return nil, fmt.Errorf("institution %q has no domain", inst.Name)
		}
		inst.Domain = d
		m.domains[d] = struct{}{}
		m.institutions = append(m.institutions, inst)
	}
	if len(m.institutions) == 0 {
		return nil, ErrEmptyList
	}

	slices.SortFunc(m.institutions, func(a, b Institution) int {
		return strings.Compare(a.Name, b.Name)
	})
	return m, nil
}

// Load reads the list at path, or the built-in list when path is empty.
func Load(path string) (*Matcher, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read institution list: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in list.
func Default() *Matcher {
	m, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return m
}

// IsInstitutionEmail reports whether addr belongs to a recognised domain or
// one of its subdomains.
func (m *Matcher) IsInstitutionEmail(addr string) bool {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return false
	}
	domain := normalise(addr[at+1:])

	for domain != "" {
		if _, ok := m.domains[domain]; ok {
			return true
		}
		_, rest, found := strings.Cut(domain, ".")
		if !found {
			break
		}
		domain = rest
	}
	return false
}

// Institutions returns the recognised institutions sorted by name.
func (m *Matcher) Institutions() []Institution {
	return slices.Clone(m.institutions)
}

// Validator returns a rule failing with RejectionMessage for unrecognised
// addresses. Empty values pass so Required can report them instead.
func Validator(m *Matcher) validation.Rule {
	return validation.By(func(value any) error {
		s, _ := value.(string)
		if s == "" || m.IsInstitutionEmail(s) {
			return nil
		}
		return validation.NewError("validation_institution_email", RejectionMessage)
	})
}

func normalise(domain string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
}
