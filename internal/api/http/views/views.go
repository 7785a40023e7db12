// Package views renders portal pages as HTML.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/securebank/bank-portal/internal/pages"
	"github.com/securebank/bank-portal/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Data is everything a view can show.
type Data struct {
	Page    pages.Page
	Session session.Snapshot
	Notice  string
	Error   string
	// Values refills form inputs after a failed submission.
	Values map[string]string
}

// Authenticated reports whether the navigation shows signed-in links.
func (d Data) Authenticated() bool {
	return d.Session.Authenticated()
}

// Value returns a refilled form input.
func (d Data) Value(name string) string {
	return d.Values[name]
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"sortedKeys": func(m map[string]string) []string {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	},
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("portal").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page wrapped in the layout. The body is buffered so
// a template error never produces a half-written response.
func (r *Renderer) Render(c *fiber.Ctx, status int, data Data) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	c.Status(status)
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
