package templates

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_EmbeddedTemplate(t *testing.T) {
	renderer, err := NewRenderer(nil)
	require.NoError(t, err)

	out, err := renderer.Render(context.Background(), domain.RenderContext{
		FeatureName:  "user-auth",
		Environment:  "python-env",
		Complexity:   domain.ComplexityComplex,
		Description:  "Login and logout",
		Requirements: []string{"hash passwords", "issue sessions"},
		Gotchas:      []string{"bcrypt is slow in tests"},
		Validation:   []string{"pytest -q", "ruff check ."},
	})
	require.NoError(t, err)

	assert.Contains(t, out, `name: "user-auth PRP (python-env)"`)
	assert.Contains(t, out, "  Login and logout")
	assert.Contains(t, out, "Complexity: complex")
	assert.Contains(t, out, "independently verifiable milestones")
	assert.Contains(t, out, "## Implementation Tasks\n1. Implement: hash passwords\n2. Implement: issue sessions")
	assert.Contains(t, out, "## Known Gotchas\n- bcrypt is slow in tests")
	assert.Contains(t, out, "```bash\npytest -q\nruff check .\n```")
	assert.NotContains(t, out, "## Examples")
}

func TestRenderer_Defaults(t *testing.T) {
	renderer, err := NewRenderer(nil)
	require.NoError(t, err)

	out, err := renderer.Render(context.Background(), domain.RenderContext{FeatureName: "cache"})
	require.NoError(t, err)

	assert.Contains(t, out, "Complexity: medium")
	assert.Contains(t, out, "No description provided.")
	assert.Contains(t, out, "- None specified.")
	assert.Contains(t, out, "1. Implement cache")
	assert.Contains(t, out, "No validation commands defined.")
}

func TestRenderer_RequiresFeatureName(t *testing.T) {
	renderer, err := NewRenderer(nil)
	require.NoError(t, err)

	_, err = renderer.Render(context.Background(), domain.RenderContext{})
	assert.True(t, domain.IsInvalidInput(err))
}

func TestRenderer_CanceledContext(t *testing.T) {
	renderer, err := NewRenderer(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = renderer.Render(ctx, domain.RenderContext{FeatureName: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("# {{ .FeatureName }} on {{ .Environment }}\n"), 0o644))

	renderer, err := NewRendererFromFile(path, nil)
	require.NoError(t, err)

	out, err := renderer.Render(context.Background(), domain.RenderContext{FeatureName: "api", Environment: "go-env"})
	require.NoError(t, err)
	assert.Equal(t, "# api on go-env\n", out)
}

func TestRenderer_FromFileErrors(t *testing.T) {
	_, err := NewRendererFromFile(filepath.Join(t.TempDir(), "missing.tmpl"), nil)
	assert.True(t, domain.IsNotFound(err))

	path := filepath.Join(t.TempDir(), "broken.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{ .FeatureName "), 0o644))
	_, err = NewRendererFromFile(path, nil)
	assert.True(t, domain.IsInvalidInput(err))
}
