package environment

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

// rule describes how one environment is recognised. Rules are evaluated in
// order, so more specific markers come first.
type rule struct {
	envType         domain.EnvironmentType
	markers         []string
	configFiles     []string
	packageManagers []lockfile
	defaultManager  string
}

type lockfile struct {
	pattern string
	manager string
}

var rules = []rule{
	{
		envType:        domain.EnvironmentRust,
		markers:        []string{"Cargo.toml"},
		configFiles:    []string{"Cargo.toml", "Cargo.lock", "rust-toolchain.toml", ".cargo/config.toml"},
		defaultManager: "cargo",
	},
	{
		envType:        domain.EnvironmentGo,
		markers:        []string{"go.mod"},
		configFiles:    []string{"go.mod", "go.sum", "go.work"},
		defaultManager: "go",
	},
	{
		envType:     domain.EnvironmentTypeScript,
		markers:     []string{"tsconfig.json", "tsconfig.*.json", "package.json"},
		configFiles: []string{"package.json", "tsconfig.json", "tsconfig.*.json", ".eslintrc*", "vite.config.*"},
		packageManagers: []lockfile{
			{pattern: "pnpm-lock.yaml", manager: "pnpm"},
			{pattern: "yarn.lock", manager: "yarn"},
			{pattern: "package-lock.json", manager: "npm"},
		},
		defaultManager: "npm",
	},
	{
		envType:     domain.EnvironmentPython,
		markers:     []string{"pyproject.toml", "requirements*.txt", "setup.py", "setup.cfg", "Pipfile"},
		configFiles: []string{"pyproject.toml", "requirements*.txt", "setup.py", "setup.cfg", "Pipfile", "uv.lock"},
		packageManagers: []lockfile{
			{pattern: "uv.lock", manager: "uv"},
			{pattern: "Pipfile.lock", manager: "pipenv"},
			{pattern: "poetry.lock", manager: "poetry"},
		},
		defaultManager: "pip",
	},
	{
		envType:        domain.EnvironmentNushell,
		markers:        []string{"*.nu", "scripts/**/*.nu"},
		configFiles:    []string{"*.nu", "scripts/**/*.nu"},
		defaultManager: "nu",
	},
}

// Detector recognises a project's language environment from the marker
// files in its root directory.
type Detector struct {
	logger *slog.Logger
}

var _ ports.EnvironmentDetector = (*Detector)(nil)

func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger.With("component", "environment")}
}

func (d *Detector) Supported() []domain.EnvironmentType {
	types := make([]domain.EnvironmentType, 0, len(rules))
	for _, r := range rules {
		types = append(types, r.envType)
	}
	return types
}

func (d *Detector) Detect(path string) (domain.EnvironmentDescriptor, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return domain.EnvironmentDescriptor{}, domain.NewValidationError("path", err.Error())
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return domain.EnvironmentDescriptor{}, domain.NewNotFoundError("directory", root)
	}

	fsys := os.DirFS(root)
	for _, r := range rules {
		if !anyMatch(fsys, r.markers) {
			continue
		}

		desc := domain.EnvironmentDescriptor{
			Type:           r.envType,
			Name:           fmt.Sprintf("%s-env", r.envType),
			Root:           root,
			PackageManager: r.packageManager(fsys),
			ConfigFiles:    matches(fsys, r.configFiles),
		}

		d.logger.Debug("environment detected",
			"root", root,
			"type", desc.Type,
			"package_manager", desc.PackageManager)
		return desc, nil
	}

	return domain.EnvironmentDescriptor{}, fmt.Errorf("could not detect environment type in %s: %w", root, domain.ErrNotFound)
}

func (r rule) packageManager(fsys fs.FS) string {
	for _, lf := range r.packageManagers {
		if anyMatch(fsys, []string{lf.pattern}) {
			return lf.manager
		}
	}
	if anyMatch(fsys, []string{"devbox.json"}) {
		return "devbox"
	}
	return r.defaultManager
}

func anyMatch(fsys fs.FS, patterns []string) bool {
	for _, pattern := range patterns {
		found, err := doublestar.Glob(fsys, pattern)
		if err == nil && len(found) > 0 {
			return true
		}
	}
	return false
}

func matches(fsys fs.FS, patterns []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		found, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			continue
		}
		for _, f := range found {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
