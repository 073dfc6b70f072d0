package workers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

// Generator renders PRP documents from feature requirements.
type Generator struct {
	base
	renderer ports.Renderer
	prpDir   string
}

var _ ports.Worker = (*Generator)(nil)

func NewGenerator(id string, mediator ports.Mediator, deps Deps) *Generator {
	return &Generator{
		base:     newBase(id, mediator, deps.logger(), "generator"),
		renderer: deps.Renderer,
		prpDir:   deps.PRPDir,
	}
}

func (g *Generator) Capabilities() domain.CapabilitySet {
	return domain.NewCapabilitySet(domain.ComponentGenerator, domain.OperationGeneratePRP)
}

func (g *Generator) Reentrant() bool {
	return true
}

func (g *Generator) Execute(ctx context.Context, request domain.TaskRequest) (map[string]interface{}, error) {
	if g.renderer == nil {
		return nil, domain.NewValidationError("renderer", "not configured")
	}

	params := request.Parameters
	featureName := strings.TrimSpace(domain.StringParam(params, "feature_name", ""))
	if featureName == "" {
		return nil, domain.NewValidationError("feature_name", "cannot be empty")
	}
	environment := domain.StringParam(params, "environment", "")
	complexity := domain.ParseComplexity(domain.StringParam(params, "complexity", ""))

	g.notify("started", map[string]interface{}{"task_id": request.TaskID, "feature_name": featureName})

	content, err := g.renderer.Render(ctx, domain.RenderContext{
		FeatureName:   featureName,
		Environment:   environment,
		Complexity:    complexity,
		Description:   domain.StringParam(params, "description", ""),
		Requirements:  domain.StringSliceParam(params, "requirements"),
		Examples:      domain.StringSliceParam(params, "examples"),
		Documentation: domain.StringSliceParam(params, "documentation"),
		Gotchas:       domain.StringSliceParam(params, "gotchas"),
		Validation:    domain.StringSliceParam(params, "validation"),
		Extra:         params,
	})
	if err != nil {
		return nil, err
	}

	filePath := ""
	if domain.BoolParam(params, "write_file", false) {
		dir := domain.StringParam(params, "output_dir", g.prpDir)
		if dir == "" {
			dir = "."
		}
		filePath = filepath.Join(dir, documentFileName(featureName, environment))
		if err := writeFile(filePath, content); err != nil {
			return nil, err
		}
		g.logger.Info("prp written", "task_id", request.TaskID, "path", filePath)
	}

	g.notify("completed", map[string]interface{}{"task_id": request.TaskID, "bytes": len(content)})

	return map[string]interface{}{
		"prp_content":  content,
		"file_path":    filePath,
		"feature_name": featureName,
		"environment":  environment,
		"complexity":   string(complexity),
	}, nil
}

func documentFileName(featureName, environment string) string {
	if environment == "" {
		return featureName + ".md"
	}
	return fmt.Sprintf("%s-%s.md", featureName, environment)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
