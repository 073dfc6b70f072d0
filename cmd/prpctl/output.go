package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/eleven-am/prpflow/internal/core"
	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/xjson"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"
)

func printJSON(w io.Writer, v interface{}) error {
	data, err := xjson.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printKV(w io.Writer, fields map[string]interface{}) error {
	if viper.GetBool("json") {
		return printJSON(w, fields)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	for _, k := range keys {
		tw.AppendRow(table.Row{k, display(fields[k])})
	}
	tw.Render()
	return nil
}

func printResult(w io.Writer, result *core.Result, extra map[string]interface{}) error {
	if viper.GetBool("json") {
		return printJSON(w, result)
	}
	fields := map[string]interface{}{
		"Success":  result.Success,
		"Attempts": result.Attempts,
		"Duration": result.ExecutionTime.Round(time.Millisecond),
	}
	if result.Error != "" {
		fields["Error"] = result.Error
	}
	if result.VersionID != "" {
		fields["Version"] = result.VersionID
		fields["Checksum"] = result.Checksum
	}
	for k, v := range extra {
		if v == nil || v == "" {
			continue
		}
		fields[k] = v
	}
	return printKV(w, fields)
}

func printValidation(w io.Writer, result *core.Result) error {
	if viper.GetBool("json") {
		return printJSON(w, result)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Check", "Passed", "Exit", "Violations"})
	if entries, ok := result.Result["checks"].([]interface{}); ok {
		for _, e := range entries {
			m, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			tw.AppendRow(table.Row{m["command"], m["passed"], display(m["exit_code"]), display(m["violations"])})
		}
	}
	tw.Render()

	if c := result.Comparison; c != nil {
		return printKV(w, map[string]interface{}{
			"Previous version": c.PreviousVersionID,
			"New failures":     c.NewFailures,
			"Resolved":         c.Resolved,
			"Unchanged":        c.Unchanged,
			"Added":            c.Added,
			"Removed":          c.Removed,
		})
	}
	return nil
}

func printVersions(w io.Writer, versions []domain.VersionSummary) error {
	if viper.GetBool("json") {
		return printJSON(w, versions)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Version", "Timestamp", "Size", "Checksum"})
	for _, v := range versions {
		tw.AppendRow(table.Row{v.VersionID, v.Timestamp.Format(time.RFC3339), v.Size, shortChecksum(v.Checksum)})
	}
	tw.Render()
	return nil
}

func printHistory(w io.Writer, records []domain.ExecutionRecord) error {
	if viper.GetBool("json") {
		return printJSON(w, records)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Execution", "Timestamp", "Status", "Version"})
	for _, r := range records {
		tw.AppendRow(table.Row{r.ExecutionID, r.Timestamp.Format(time.RFC3339), r.Status, r.VersionID})
	}
	tw.Render()
	return nil
}

// statusView is the part of SystemStatus that means something across CLI
// runs. Task and listener counters belong to a single process and are left
// out.
type statusView struct {
	DataDir        string                 `json:"data_dir"`
	HistoryBackend domain.HistoryBackend  `json:"history_backend"`
	WorkerTypes    []string               `json:"worker_types"`
	Components     []domain.ComponentInfo `json:"components"`
	MaxWorkers     int                    `json:"max_workers"`
	RetryAttempts  int                    `json:"retry_attempts"`
}

func newStatusView(cfg domain.Config, status domain.SystemStatus) statusView {
	return statusView{
		DataDir:        cfg.DataDir,
		HistoryBackend: status.HistoryBackend,
		WorkerTypes:    status.RegisteredTypes,
		Components:     status.Dispatcher.ComponentList,
		MaxWorkers:     cfg.Dispatcher.MaxWorkers,
		RetryAttempts:  cfg.Facade.RetryAttempts,
	}
}

func printStatus(w io.Writer, view statusView) error {
	if viper.GetBool("json") {
		return printJSON(w, view)
	}
	ids := make([]string, 0, len(view.Components))
	for _, c := range view.Components {
		ids = append(ids, c.ID)
	}
	return printKV(w, map[string]interface{}{
		"Data dir":        view.DataDir,
		"History backend": view.HistoryBackend,
		"Worker types":    view.WorkerTypes,
		"Components":      ids,
		"Max workers":     view.MaxWorkers,
		"Retry attempts":  view.RetryAttempts,
	})
}

func display(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, ", ")
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
