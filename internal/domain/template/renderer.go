// Package template renders notification kinds into channel content.
package template

import (
	"fmt"
	htmltemplate "html/template"
	"notifier/internal/domain/constant"
	appErrors "notifier/internal/pkg/errors"
	"strings"
	"sync"
	texttemplate "text/template"
)

// Template is the static content for one notification kind.
type Template struct {
	Kind     constant.Kind
	Required []string // payload keys that must be present and non-empty
	Optional []string // payload keys the templates use when set
	Text     string   // SMS and LINE body
	Subject  string   // email subject
	HTML     string   // email body
}

type compiled struct {
	required []string
	optional []string
	text     *texttemplate.Template
	subject  *texttemplate.Template
	html     *htmltemplate.Template
}

// Renderer holds the registered templates. Safe for concurrent use.
type Renderer struct {
	mu        sync.RWMutex
	templates map[constant.Kind]*compiled
	defaults  map[string]string
}

// NewRenderer creates a renderer with the built-in templates registered.
// defaults fill payload keys the caller did not set (business_name, business_phone).
func NewRenderer(defaults map[string]string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[constant.Kind]*compiled),
		defaults:  map[string]string{"business_name": "our studio", "business_phone": ""},
	}
	for k, v := range defaults {
		if v != "" || k == "business_phone" {
			r.defaults[k] = v
		}
	}
	for _, t := range builtinTemplates {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces the template for t.Kind.
func (r *Renderer) Register(t Template) error {
	if t.Kind == "" {
		return fmt.Errorf("template kind is required")
	}
	text, err := texttemplate.New(string(t.Kind) + ".text").Option("missingkey=error").Parse(t.Text)
	if err != nil {
		return fmt.Errorf("parse text template %s: %w", t.Kind, err)
	}
	subject, err := texttemplate.New(string(t.Kind) + ".subject").Option("missingkey=error").Parse(t.Subject)
	if err != nil {
		return fmt.Errorf("parse subject template %s: %w", t.Kind, err)
	}
	html, err := htmltemplate.New(string(t.Kind) + ".html").Option("missingkey=error").Parse(t.HTML)
	if err != nil {
		return fmt.Errorf("parse html template %s: %w", t.Kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Kind] = &compiled{
		required: append([]string(nil), t.Required...),
		optional: append([]string(nil), t.Optional...),
		text:     text,
		subject:  subject,
		html:     html,
	}
	return nil
}

// Kinds returns the registered kinds.
func (r *Renderer) Kinds() []constant.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]constant.Kind, 0, len(r.templates))
	for k := range r.templates {
		kinds = append(kinds, k)
	}
	return kinds
}

func (r *Renderer) lookup(kind constant.Kind) (*compiled, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErrors.ErrUnknownKind, kind)
	}
	return c, nil
}

// Validate checks that kind is registered and payload carries every required field.
func (r *Renderer) Validate(kind constant.Kind, payload map[string]string) error {
	c, err := r.lookup(kind)
	if err != nil {
		return err
	}
	return checkRequired(kind, c.required, payload)
}

func checkRequired(kind constant.Kind, required []string, payload map[string]string) error {
	for _, field := range required {
		if strings.TrimSpace(payload[field]) == "" {
			return fmt.Errorf("%w: %q is required for %s", appErrors.ErrMissingField, field, kind)
		}
	}
	return nil
}

// Render produces the content for a channel shape. subject is nil for text shapes.
func (r *Renderer) Render(kind constant.Kind, shape constant.Shape, payload map[string]string) (*string, string, error) {
	c, err := r.lookup(kind)
	if err != nil {
		return nil, "", err
	}
	if err := checkRequired(kind, c.required, payload); err != nil {
		return nil, "", err
	}

	data := make(map[string]string, len(r.defaults)+len(c.optional)+len(payload))
	for k, v := range r.defaults {
		data[k] = v
	}
	for _, k := range c.optional {
		data[k] = ""
	}
	for k, v := range payload {
		data[k] = v
	}

	var body strings.Builder
	if shape != constant.ShapeEmail {
		if err := c.text.Execute(&body, data); err != nil {
			return nil, "", fmt.Errorf("%w: render %s: %v", appErrors.ErrMissingField, kind, err)
		}
		return nil, strings.TrimSpace(body.String()), nil
	}

	var subject strings.Builder
	if err := c.subject.Execute(&subject, data); err != nil {
		return nil, "", fmt.Errorf("%w: render %s subject: %v", appErrors.ErrMissingField, kind, err)
	}
	if err := c.html.Execute(&body, data); err != nil {
		return nil, "", fmt.Errorf("%w: render %s body: %v", appErrors.ErrMissingField, kind, err)
	}
	s := strings.TrimSpace(subject.String())
	return &s, strings.TrimSpace(body.String()), nil
}
