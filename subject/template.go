// Package subject renders the sub claim of a host token from a text/template.
//
// A template sees exactly one binding, the host, as {{ .Host.Name }} and
// {{ .Host.Properties.<key> }}. Nothing else from the issuer is reachable.
package subject

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrRender wraps template execution failures.
var ErrRender = errors.New("subject template render failed")

// HostView is the read-only host facade exposed to templates.
type HostView struct {
	Name       string
	Properties map[string]any
}

type renderContext struct {
	Host HostView
}

// Template is a compiled subject template. It is immutable and safe for concurrent use.
type Template struct {
	source string
	tmpl   *template.Template
}

// Compile parses src once. Referencing a property key that does not exist fails at render time.
func Compile(src string) (*Template, error) {
	tmpl, err := template.New("sub").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	return &Template{source: src, tmpl: tmpl}, nil
}

// Source returns the uncompiled template text.
func (t *Template) Source() string {
	return t.source
}

// Render executes the template against host.
func (t *Template) Render(host HostView) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, renderContext{Host: host}); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return b.String(), nil
}
