package main

import (
	"bufio"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/eleven-am/prpflow/internal/domain"
)

var (
	sectionHeading = regexp.MustCompile(`^#*\s*([A-Za-z ]+):?\s*$`)
	bulletLine     = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.+)$`)
	simpleWords    = regexp.MustCompile(`(?i)\b(simple|basic)\b`)
	complexWords   = regexp.MustCompile(`(?i)\b(complex|advanced)\b`)
)

var sectionParams = map[string]string{
	"FEATURE":              "requirements",
	"EXAMPLES":             "examples",
	"DOCUMENTATION":        "documentation",
	"OTHER CONSIDERATIONS": "gotchas",
}

func featureName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseFeature turns a feature file into generator parameters. Bullets under
// FEATURE, EXAMPLES, DOCUMENTATION and OTHER CONSIDERATIONS headings become
// list parameters and the whole text becomes the description.
func parseFeature(content string) map[string]interface{} {
	lists := make(map[string][]string)
	current := ""

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if m := sectionHeading.FindStringSubmatch(line); m != nil {
			if param, ok := sectionParams[strings.ToUpper(strings.TrimSpace(m[1]))]; ok {
				current = param
				continue
			}
		}
		if current == "" {
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			lists[current] = append(lists[current], strings.TrimSpace(m[1]))
		}
	}

	params := map[string]interface{}{
		"description": strings.TrimSpace(content),
		"complexity":  string(detectComplexity(content)),
	}
	for _, param := range sectionParams {
		if items := lists[param]; len(items) > 0 {
			params[param] = items
		}
	}
	return params
}

func detectComplexity(content string) domain.Complexity {
	switch {
	case complexWords.MatchString(content):
		return domain.ComplexityComplex
	case simpleWords.MatchString(content):
		return domain.ComplexitySimple
	default:
		return domain.ComplexityMedium
	}
}
