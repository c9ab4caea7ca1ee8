package usecase

import (
	"bytes"
	_ "embed"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

//go:embed rules/classifier.toml
var defaultClassifierRules []byte

// ClassifierRules are keyword lists selecting the context note of a ticket
type ClassifierRules struct {
	Services      []string          `toml:"services"`
	Presales      []string          `toml:"presales"`
	Investigating []string          `toml:"investigating"`
	Notes         map[string]string `toml:"notes"`
}

// Classification is the result of Classify
type Classification struct {
	Class types.TicketClass
	Note  string
}

// DefaultClassifierRules returns the embedded rules
func DefaultClassifierRules() *ClassifierRules {
	rules, err := ParseClassifierRules(defaultClassifierRules)
	if err != nil {
		panic("embedded classifier rules are invalid: " + err.Error())
	}
	return rules
}

// ParseClassifierRules decodes TOML rules. Unknown keys are rejected.
func ParseClassifierRules(data []byte) (*ClassifierRules, error) {
	var rules ClassifierRules
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rules); err != nil {
		return nil, goerr.Wrap(err, "failed to parse classifier rules")
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	rules.normalize()
	return &rules, nil
}

// LoadClassifierRules reads rules from a TOML file
func LoadClassifierRules(path string) (*ClassifierRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read classifier rules", goerr.V("path", path))
	}
	rules, err := ParseClassifierRules(data)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid classifier rules", goerr.V("path", path))
	}
	return rules, nil
}

// Validate checks that every class with keywords has a note
func (r *ClassifierRules) Validate() error {
	for class, keywords := range map[types.TicketClass][]string{
		types.TicketClassServices:      r.Services,
		types.TicketClassPresales:      r.Presales,
		types.TicketClassInvestigating: r.Investigating,
	} {
		if len(keywords) > 0 && strings.TrimSpace(r.Notes[string(class)]) == "" {
			return goerr.New("classifier note is missing", goerr.V("class", class))
		}
	}
	return nil
}

func (r *ClassifierRules) normalize() {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	r.Services = lower(r.Services)
	r.Presales = lower(r.Presales)
	r.Investigating = lower(r.Investigating)
}

// Classify picks the context of a ticket. Services tags win over presales tags
// or subject, which win over investigating phrases in the reply.
func (r *ClassifierRules) Classify(tags []string, subject, responseText string) Classification {
	lowerTags := make([]string, len(tags))
	for i, tag := range tags {
		lowerTags[i] = strings.ToLower(tag)
	}

	if containsAny(lowerTags, r.Services) {
		return r.classification(types.TicketClassServices)
	}
	if containsAny(lowerTags, r.Presales) || containsAny([]string{strings.ToLower(subject)}, r.Presales) {
		return r.classification(types.TicketClassPresales)
	}
	if containsAny([]string{strings.ToLower(responseText)}, r.Investigating) {
		return r.classification(types.TicketClassInvestigating)
	}
	return Classification{Class: types.TicketClassNone}
}

func (r *ClassifierRules) classification(class types.TicketClass) Classification {
	return Classification{Class: class, Note: r.Notes[string(class)]}
}

func containsAny(haystacks, keywords []string) bool {
	for _, h := range haystacks {
		for _, k := range keywords {
			if strings.Contains(h, k) {
				return true
			}
		}
	}
	return false
}
