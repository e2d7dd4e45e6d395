package email

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

type Template string

const (
	TemplateWelcome Template = "welcome"
)

// Render executes the named template with data.
func Render(name Template, data map[string]string) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+string(name)+".html")
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse email template %s", name)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", name)
	}

	return body.String(), nil
}
