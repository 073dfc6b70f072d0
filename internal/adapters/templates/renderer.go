package templates

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

//go:embed files/*.tmpl
var files embed.FS

const defaultTemplate = "files/prp.md.tmpl"

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"indent": func(n int, s string) string {
		pad := strings.Repeat(" ", n)
		return pad + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n"+pad)
	},
	"fallback": func(s, fallback string) string {
		if strings.TrimSpace(s) == "" {
			return fallback
		}
		return s
	},
}

type Renderer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer returns a renderer backed by the embedded PRP template.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	raw, err := files.ReadFile(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("read embedded template: %w", err)
	}
	return newRenderer("prp", string(raw), logger)
}

// NewRendererFromFile parses a user supplied template instead of the embedded one.
func NewRendererFromFile(path string, logger *slog.Logger) (*Renderer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewNotFoundError("template", path)
	}
	return newRenderer(path, string(raw), logger)
}

func newRenderer(name, text string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, domain.NewValidationError("template", err.Error())
	}

	return &Renderer{
		tmpl:   tmpl,
		logger: logger.With("component", "renderer"),
	}, nil
}

func (r *Renderer) Render(ctx context.Context, data domain.RenderContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(data.FeatureName) == "" {
		return "", domain.NewValidationError("feature_name", "cannot be empty")
	}
	if data.Complexity == "" {
		data.Complexity = domain.ComplexityMedium
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", r.tmpl.Name(), err)
	}

	r.logger.Debug("rendered prp", "feature_name", data.FeatureName, "bytes", buf.Len())
	return buf.String(), nil
}
