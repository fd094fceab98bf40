package voice

import (
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

// templateData is exposed to seed and direct templates.
type templateData struct {
	Message string
	Persona string
	Vibe    string
	Mode    string
}

func parseTemplates(prefix string, texts []string) ([]*template.Template, error) {
	templates := make([]*template.Template, 0, len(texts))
	for i, text := range texts {
		tmpl, err := template.New(fmt.Sprintf("%s.%d", prefix, i)).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s.%d: %w", prefix, i, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// render executes tmpl; on failure it logs and returns the raw template text.
func render(tmpl *template.Template, data templateData) string {
	if tmpl == nil {
		return ""
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		slog.Warn("failed to render template", "template", tmpl.Name(), "error", err.Error())
		return tmpl.Root.String()
	}
	return sb.String()
}
