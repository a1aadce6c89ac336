package plugins

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rag2f/rag2f/pkg/hooks"
)

// Group is the entry-point group rag2f plugins are advertised under.
const Group = "rag2f.plugins"

// Source tells where a descriptor was discovered.
type Source string

const (
	SourceEntryPoint Source = "entry_point"
	SourceFilesystem Source = "filesystem"
)

var idPattern = regexp.MustCompile(`^[a-z0-9_][a-z0-9_-]*$`)

// Descriptor identifies one discovered plugin.
type Descriptor struct {
	ID           string         `json:"id" validate:"required,plugin_id"`
	Source       Source         `json:"source" validate:"required,oneof=entry_point filesystem"`
	ImportTarget string         `json:"target" validate:"required"`
	ManifestPath string         `json:"manifest,omitempty"`
	Dir          string         `json:"dir,omitempty"`
	Name         string         `json:"name,omitempty" validate:"max=200"`
	Version      string         `json:"version,omitempty" validate:"max=64"`
	Description  string         `json:"description,omitempty"`
	Requires     []string       `json:"requires,omitempty" validate:"dive,required,plugin_id"`
	Defaults     map[string]any `json:"defaults,omitempty"`
}

// Skip records a candidate that was dropped without failing discovery.
type Skip struct {
	Source Source `json:"source"`
	ID     string `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Plugin is the contract a loaded plugin satisfies.
type Plugin interface {
	Activate(r *hooks.Registrar) error
}

// ActivatorFunc adapts a function to Plugin.
type ActivatorFunc func(r *hooks.Registrar) error

// Activate calls f.
func (f ActivatorFunc) Activate(r *hooks.Registrar) error {
	return f(r)
}

// NormalizeID case-folds a plugin id.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ValidID reports whether id is a normalized, usable plugin id. Ids never
// contain dots so plugins.<id> is a single configuration segment.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("plugin_id", func(fl validator.FieldLevel) bool {
		return ValidID(fl.Field().String())
	})
	return v
}

func validateDescriptor(d Descriptor) error {
	return validate.Struct(d)
}
