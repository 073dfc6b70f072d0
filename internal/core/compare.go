package core

import (
	"sort"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/xjson"
)

// checkOutcomes maps each check command to whether it passed. It accepts
// both live worker output and output decoded from a stored snapshot.
func checkOutcomes(output map[string]interface{}) map[string]bool {
	outcomes := make(map[string]bool)

	var entries []interface{}
	switch v := output["checks"].(type) {
	case []interface{}:
		entries = v
	case []map[string]interface{}:
		for _, e := range v {
			entries = append(entries, e)
		}
	}

	for _, entry := range entries {
		check, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		command := domain.StringParam(check, "command", "")
		if command == "" {
			continue
		}
		outcomes[command] = domain.BoolParam(check, "passed", false)
	}
	return outcomes
}

func compareOutcomes(previous *domain.Snapshot, current map[string]bool) *Comparison {
	comparison := &Comparison{
		NewFailures: []string{},
		Resolved:    []string{},
		Unchanged:   []string{},
		Added:       []string{},
		Removed:     []string{},
	}

	before := map[string]bool{}
	if previous != nil {
		comparison.PreviousVersionID = previous.VersionID
		var decoded map[string]interface{}
		if err := xjson.Unmarshal([]byte(previous.Content), &decoded); err == nil {
			before = checkOutcomes(decoded)
		}
	}

	for command, passed := range current {
		was, seen := before[command]
		switch {
		case seen && was == passed:
			comparison.Unchanged = append(comparison.Unchanged, command)
		case !passed:
			comparison.NewFailures = append(comparison.NewFailures, command)
		case seen && !was:
			comparison.Resolved = append(comparison.Resolved, command)
		default:
			comparison.Added = append(comparison.Added, command)
		}
	}

	for command := range before {
		if _, still := current[command]; !still {
			comparison.Removed = append(comparison.Removed, command)
		}
	}

	sort.Strings(comparison.NewFailures)
	sort.Strings(comparison.Resolved)
	sort.Strings(comparison.Unchanged)
	sort.Strings(comparison.Added)
	sort.Strings(comparison.Removed)
	return comparison
}
