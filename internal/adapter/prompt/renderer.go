package prompt

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"studyrag/internal/domain"
)

//go:embed templates/*.tmpl
var promptTemplates embed.FS

// Renderer is a Generator that produces the prompt an LLM would receive
// instead of calling one. Output can be piped into any model.
type Renderer struct {
	tmpl *template.Template
}

type promptData struct {
	Question string
	Context  string
	Topic    string
	NotFound string
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("prompt").Funcs(templateFuncs()).ParseFS(promptTemplates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Name() string {
	return "prompt"
}

func (r *Renderer) Answer(ctx context.Context, question, context string) (string, error) {
	return r.render("qa.tmpl", promptData{
		Question: question,
		Context:  context,
		NotFound: domain.NotFoundAnswer,
	})
}

func (r *Renderer) Material(ctx context.Context, kind domain.MaterialType, context, topic string) (string, error) {
	if _, err := domain.ParseMaterialType(string(kind)); err != nil {
		return "", err
	}
	return r.render(string(kind)+".tmpl", promptData{
		Context: context,
		Topic:   topic,
	})
}

func (r *Renderer) render(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"focus": func(topic string) string {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				return ""
			}
			return " focusing on " + topic
		},
	}
}
