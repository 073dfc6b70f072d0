package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eleven-am/prpflow/internal/adapters/environment"
	"github.com/eleven-am/prpflow/internal/adapters/templates"
	"github.com/eleven-am/prpflow/internal/core"
	"github.com/spf13/cobra"
)

func generateCmd() *cobra.Command {
	var env, templatePath string
	var noVersioning, noWrite bool

	cmd := &cobra.Command{
		Use:   "generate <feature-file>",
		Short: "Generate a PRP from a feature file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read feature file: %w", err)
			}
			name := featureName(args[0])
			requirements := parseFeature(string(raw))
			requirements["feature_file"] = args[0]
			requirements["write_file"] = !noWrite

			var opts []core.Option
			if templatePath != "" {
				renderer, err := templates.NewRendererFromFile(templatePath, newLogger())
				if err != nil {
					return err
				}
				opts = append(opts, core.WithRenderer(renderer))
			}

			return withSystem(cmd.Context(), opts, func(ctx context.Context, sys *core.System) error {
				result, err := sys.GenerateWithVersioning(ctx, name, env, requirements, !noVersioning)
				if err != nil {
					return err
				}
				if err := printResult(cmd.OutOrStdout(), result, map[string]interface{}{
					"Feature":    name,
					"Complexity": result.Result["complexity"],
					"Output":     result.Result["file_path"],
				}); err != nil {
					return err
				}
				return failed(result)
			})
		},
	}
	cmd.Flags().StringVar(&env, "env", "python-env", "target environment")
	cmd.Flags().StringVar(&templatePath, "template", "", "custom PRP template file")
	cmd.Flags().BoolVar(&noVersioning, "no-versioning", false, "do not store a snapshot")
	cmd.Flags().BoolVar(&noWrite, "no-write", false, "do not write the PRP file")
	return cmd
}

func executeCmd() *cobra.Command {
	var env, projectDir string
	var noRollback, validate, run bool

	cmd := &cobra.Command{
		Use:   "execute <prp-path>",
		Short: "Execute a PRP, rolling it back on failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := map[string]interface{}{
				"run_commands": run,
				"project_dir":  projectDir,
			}

			return withSystem(cmd.Context(), nil, func(ctx context.Context, sys *core.System) error {
				environmentName := env
				if environmentName == "" {
					if desc, err := sys.Detector().Detect(projectDir); err == nil {
						environmentName = desc.Name
					}
				}

				result, err := sys.ExecuteWithRollback(ctx, args[0], environmentName, options, !noRollback)
				if err != nil {
					return err
				}

				extra := map[string]interface{}{
					"Environment": environmentName,
					"Status":      result.Result["status"],
					"Execution":   result.ExecutionID,
				}
				if result.Rollback != nil {
					extra["Rolled back"] = result.Rollback.Restored
					extra["Rollback version"] = result.Rollback.VersionID
					extra["Rollback error"] = result.Rollback.Error
				}
				if err := printResult(cmd.OutOrStdout(), result, extra); err != nil {
					return err
				}
				if err := failed(result); err != nil || !validate {
					return err
				}

				gates := result.Result["commands"]
				checks := commandsFrom(gates)
				if len(checks) == 0 {
					return nil
				}
				validation, err := sys.ValidateWithHistory(ctx, environmentName, checks, true)
				if err != nil {
					return err
				}
				if err := printValidation(cmd.OutOrStdout(), validation); err != nil {
					return err
				}
				return failed(validation)
			})
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "target environment (detected when empty)")
	cmd.Flags().StringVar(&projectDir, "project-dir", ".", "project root commands run in")
	cmd.Flags().BoolVar(&noRollback, "no-rollback", false, "keep the PRP as is when execution fails")
	cmd.Flags().BoolVar(&validate, "validate", false, "run the PRP's commands as validation checks afterwards")
	cmd.Flags().BoolVar(&run, "run", false, "run the PRP's shell commands")
	return cmd
}

func validateCmd() *cobra.Command {
	var env string
	var checks []string
	var compare bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run validation checks and compare them with the previous run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(checks) == 0 {
				return fmt.Errorf("at least one --check is required")
			}
			return withSystem(cmd.Context(), nil, func(ctx context.Context, sys *core.System) error {
				result, err := sys.ValidateWithHistory(ctx, env, checks, compare)
				if err != nil {
					return err
				}
				if err := printValidation(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				return failed(result)
			})
		},
	}
	cmd.Flags().StringVar(&env, "env", "python-env", "environment the checks belong to")
	cmd.Flags().StringArrayVar(&checks, "check", nil, "validation command (repeatable)")
	cmd.Flags().BoolVar(&compare, "compare", false, "compare with the previous validation run")
	return cmd
}

func versionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "versions", Short: "List and restore PRP versions"}
	cmd.AddCommand(versionsListCmd())
	cmd.AddCommand(versionsRestoreCmd())
	return cmd
}

func versionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <name>",
		Short: "List versions of a document, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSystem(cmd.Context(), nil, func(ctx context.Context, sys *core.System) error {
				versions, err := sys.ListPRPVersions(ctx, args[0])
				if err != nil {
					return err
				}
				return printVersions(cmd.OutOrStdout(), versions)
			})
		},
	}
}

func versionsRestoreCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "restore <name> <version-id>",
		Short: "Restore a version, verifying its checksum",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSystem(cmd.Context(), nil, func(ctx context.Context, sys *core.System) error {
				snapshot, err := sys.RestorePRPVersion(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if output == "" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), snapshot.Content)
					return err
				}
				if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(output, []byte(snapshot.Content), 0o644); err != nil {
					return err
				}
				return printKV(cmd.OutOrStdout(), map[string]interface{}{
					"Document": snapshot.DocumentName,
					"Version":  snapshot.VersionID,
					"Checksum": snapshot.Checksum,
					"Written":  output,
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the content to this file instead of stdout")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <name>",
		Short: "Show the execution history of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSystem(cmd.Context(), nil, func(ctx context.Context, sys *core.System) error {
				records, err := sys.GetExecutionHistory(ctx, args[0])
				if err != nil {
					return err
				}
				return printHistory(cmd.OutOrStdout(), records)
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, history backend and registered workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSystem(cmd.Context(), nil, func(ctx context.Context, sys *core.System) error {
				return printStatus(cmd.OutOrStdout(), newStatusView(sys.Config(), sys.GetSystemStatus()))
			})
		},
	}
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [path]",
		Short: "Detect the project environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			desc, err := environment.NewDetector(newLogger()).Detect(path)
			if err != nil {
				return err
			}
			return printKV(cmd.OutOrStdout(), map[string]interface{}{
				"Type":            desc.Type,
				"Name":            desc.Name,
				"Root":            desc.Root,
				"Package manager": desc.PackageManager,
				"Config files":    desc.ConfigFiles,
			})
		},
	}
}

func failed(result *core.Result) error {
	if result.Success {
		return nil
	}
	return fmt.Errorf("%s", result.Error)
}

func commandsFrom(v interface{}) []string {
	entries, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, e := range entries {
		if m, ok := e.(map[string]interface{}); ok {
			if c, ok := m["command"].(string); ok {
				out = append(out, c)
			}
		}
	}
	return out
}
