package topics

import (
	"path/filepath"
	"sync"

	"github.com/charmbracelet/glamour"
)

// GlamourRenderer renders markdown topics with glamour.
type GlamourRenderer struct {
	// Style is "auto", a built-in style name ("dark", "light", "notty") or
	// the path to a JSON style file.
	Style string
	// Width wraps output at this column; 0 keeps glamour's default.
	Width int

	once sync.Once
	term *glamour.TermRenderer
	err  error
}

// NewGlamourRenderer returns a renderer that picks its style from the terminal.
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{Style: "auto"}
}

func (r *GlamourRenderer) options() []glamour.TermRendererOption {
	var opts []glamour.TermRendererOption
	switch {
	case r.Style == "" || r.Style == "auto":
		opts = append(opts, glamour.WithAutoStyle())
	case filepath.Ext(r.Style) == ".json":
		opts = append(opts, glamour.WithStylePath(r.Style))
	default:
		opts = append(opts, glamour.WithStandardStyle(r.Style))
	}
	if r.Width > 0 {
		opts = append(opts, glamour.WithWordWrap(r.Width))
	}
	return opts
}

// Render renders markdown topics and passes other formats through. Rendering
// errors fall back to the raw content.
func (r *GlamourRenderer) Render(content string, format string) string {
	if format != ".md" {
		return content
	}

	r.once.Do(func() {
		r.term, r.err = glamour.NewTermRenderer(r.options()...)
	})
	if r.err != nil {
		return content
	}

	rendered, err := r.term.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
