package environment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, name := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("# "+name), 0o644))
	}
}

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		envType domain.EnvironmentType
		manager string
	}{
		{"python pyproject", []string{"pyproject.toml"}, domain.EnvironmentPython, "pip"},
		{"python uv", []string{"pyproject.toml", "uv.lock"}, domain.EnvironmentPython, "uv"},
		{"python requirements", []string{"requirements-dev.txt"}, domain.EnvironmentPython, "pip"},
		{"typescript npm", []string{"package.json", "tsconfig.json"}, domain.EnvironmentTypeScript, "npm"},
		{"typescript yarn", []string{"package.json", "yarn.lock"}, domain.EnvironmentTypeScript, "yarn"},
		{"typescript pnpm", []string{"package.json", "pnpm-lock.yaml"}, domain.EnvironmentTypeScript, "pnpm"},
		{"rust", []string{"Cargo.toml"}, domain.EnvironmentRust, "cargo"},
		{"go", []string{"go.mod"}, domain.EnvironmentGo, "go"},
		{"go devbox", []string{"go.mod", "devbox.json"}, domain.EnvironmentGo, "devbox"},
		{"nushell root", []string{"config.nu"}, domain.EnvironmentNushell, "nu"},
		{"nushell nested", []string{"scripts/build/release.nu"}, domain.EnvironmentNushell, "nu"},
	}

	detector := NewDetector(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files...)

			desc, err := detector.Detect(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.envType, desc.Type)
			assert.Equal(t, tt.manager, desc.PackageManager)
			assert.Equal(t, string(tt.envType)+"-env", desc.Name)
		})
	}
}

func TestDetector_ConfigFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "pyproject.toml", "requirements.txt", "main.py")

	desc, err := NewDetector(nil).Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"pyproject.toml", "requirements.txt"}, desc.ConfigFiles)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, desc.Root)
}

func TestDetector_RustWinsOverTypeScript(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "Cargo.toml", "package.json")

	desc, err := NewDetector(nil).Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, domain.EnvironmentRust, desc.Type)
}

func TestDetector_Unknown(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "README.md")

	_, err := NewDetector(nil).Detect(dir)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Contains(t, err.Error(), "could not detect environment type")
}

func TestDetector_MissingDirectory(t *testing.T) {
	_, err := NewDetector(nil).Detect(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, domain.IsNotFound(err))
}

func TestDetector_Supported(t *testing.T) {
	assert.ElementsMatch(t, []domain.EnvironmentType{
		domain.EnvironmentPython,
		domain.EnvironmentTypeScript,
		domain.EnvironmentRust,
		domain.EnvironmentGo,
		domain.EnvironmentNushell,
	}, NewDetector(nil).Supported())
}
