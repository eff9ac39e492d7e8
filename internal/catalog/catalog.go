// Package catalog provides the static template table mapping a criterion
// classification to a short descriptor and step skeletons.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/ado-testgen/internal/naming"
	"github.com/jonathan/ado-testgen/internal/types"
)

// CriterionPlaceholder is substituted with the criterion text in template steps.
const CriterionPlaceholder = "{criterion}"

// QualifierWords is the number of descriptor words reserved for scenario
// qualifiers appended by the synthesizer.
const QualifierWords = 2

//go:embed templates.yaml
var defaultTemplates []byte

// Template is one catalog entry.
type Template struct {
	Category        types.Category    `yaml:"category"`
	Subcategory     string            `yaml:"subcategory"`
	ShortDescriptor string            `yaml:"short_descriptor"`
	Steps           []types.DraftStep `yaml:"steps"`
}

// StepsFor returns the template steps with the criterion text substituted.
func (t Template) StepsFor(criterion string) []types.DraftStep {
	criterion = strings.TrimSpace(criterion)
	out := make([]types.DraftStep, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = types.DraftStep{
			Action:   strings.ReplaceAll(s.Action, CriterionPlaceholder, criterion),
			Expected: strings.ReplaceAll(s.Expected, CriterionPlaceholder, criterion),
		}
	}
	return out
}

type key struct {
	category    types.Category
	subcategory string
}

// Catalog is an immutable lookup table of templates.
type Catalog struct {
	exact      map[key]Template
	byCategory map[types.Category]Template
	fallback   Template
}

// LoadError reports a catalog that failed to parse or violates its invariants.
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template catalog error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template catalog error: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

type document struct {
	Templates []Template `yaml:"templates"`
}

// Load parses a YAML catalog and checks its invariants: every descriptor
// leaves room for qualifiers and passes the title grammar, every template
// has steps, and an Other/General entry exists.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, &LoadError{Message: "failed to parse templates", Cause: err}
	}

	return New(doc.Templates)
}

// New builds a catalog from templates, applying the same checks as Load.
// The first template seen for a category becomes that category's fallback.
func New(templates []Template) (*Catalog, error) {
	c := &Catalog{
		exact:      make(map[key]Template, len(templates)),
		byCategory: make(map[types.Category]Template),
	}

	hasFallback := false
	for i, t := range templates {
		if err := naming.ValidateDescriptor(t.ShortDescriptor); err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("template %d (%s / %s)", i, t.Category, t.Subcategory), Cause: err}
		}
		if n := len(strings.Fields(t.ShortDescriptor)); n > naming.MaxDescriptorWords-QualifierWords {
			return nil, &LoadError{Message: fmt.Sprintf("template %d descriptor %q has %d words, max %d", i, t.ShortDescriptor, n, naming.MaxDescriptorWords-QualifierWords)}
		}
		if len(t.Steps) == 0 {
			return nil, &LoadError{Message: fmt.Sprintf("template %d (%s / %s) has no steps", i, t.Category, t.Subcategory)}
		}

		k := key{category: t.Category, subcategory: t.Subcategory}
		if _, dup := c.exact[k]; dup {
			return nil, &LoadError{Message: fmt.Sprintf("duplicate template for %s / %s", t.Category, t.Subcategory)}
		}
		c.exact[k] = t
		if _, ok := c.byCategory[t.Category]; !ok {
			c.byCategory[t.Category] = t
		}
		if t.Category == types.CategoryOther && !hasFallback {
			c.fallback = t
			hasFallback = true
		}
	}

	if !hasFallback {
		return nil, &LoadError{Message: "catalog has no Other/General template"}
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, loading it on first use.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(bytes.NewReader(defaultTemplates))
	})
	return defaultCatalog, defaultErr
}

// Lookup returns the template for (category, subcategory), falling back to
// any template of the category and then to the Other/General template.
func (c *Catalog) Lookup(category types.Category, subcategory string) Template {
	if t, ok := c.exact[key{category: category, subcategory: subcategory}]; ok {
		return t
	}
	if t, ok := c.byCategory[category]; ok {
		return t
	}
	return c.fallback
}

// Len returns the number of templates.
func (c *Catalog) Len() int {
	return len(c.exact)
}
