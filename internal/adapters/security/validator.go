package security

import (
	"log/slog"
	"regexp"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

type Rule struct {
	Name     string
	Message  string
	Severity domain.Severity
	Pattern  *regexp.Regexp
}

func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "recursive_root_delete",
			Message:  "recursive delete of a root or home directory",
			Severity: domain.SeverityCritical,
			Pattern:  regexp.MustCompile(`\brm\s+(-[a-zA-Z]+\s+)*-[a-zA-Z]*[rR][a-zA-Z]*\s+(-[a-zA-Z]+\s+)*(/|~|\$HOME|/\*)(\s|$|;)`),
		},
		{
			Name:     "remote_pipe_to_shell",
			Message:  "downloaded content piped into an interpreter",
			Severity: domain.SeverityCritical,
			Pattern:  regexp.MustCompile(`\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(sh|bash|zsh|python[0-9.]*)\b`),
		},
		{
			Name:     "eval",
			Message:  "dynamic evaluation of shell input",
			Severity: domain.SeverityHigh,
			Pattern:  regexp.MustCompile(`\beval\b`),
		},
		{
			Name:     "privilege_escalation",
			Message:  "command requests elevated privileges",
			Severity: domain.SeverityHigh,
			Pattern:  regexp.MustCompile(`(^|[;&|]\s*|\s)(sudo|su|doas)(\s|$)`),
		},
		{
			Name:     "fork_bomb",
			Message:  "fork bomb",
			Severity: domain.SeverityCritical,
			Pattern:  regexp.MustCompile(`:\s*\(\s*\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`),
		},
		{
			Name:     "filesystem_format",
			Message:  "formats a filesystem",
			Severity: domain.SeverityCritical,
			Pattern:  regexp.MustCompile(`\bmkfs(\.[a-z0-9]+)?\b`),
		},
		{
			Name:     "raw_device_write",
			Message:  "writes directly to a block device",
			Severity: domain.SeverityCritical,
			Pattern:  regexp.MustCompile(`(\bdd\b.*\bof=/dev/|>\s*/dev/(sd|nvme|hd|disk)[a-z0-9]*)`),
		},
		{
			Name:     "world_writable_root",
			Message:  "makes the filesystem root world writable",
			Severity: domain.SeverityHigh,
			Pattern:  regexp.MustCompile(`\bchmod\s+(-[a-zA-Z]+\s+)*0?777\s+/(\s|$)`),
		},
		{
			Name:     "system_config_write",
			Message:  "writes to /etc",
			Severity: domain.SeverityHigh,
			Pattern:  regexp.MustCompile(`(>>?\s*/etc/|\btee\s+(-a\s+)?/etc/)`),
		},
	}
}

// Validator flags shell commands that match any of its rules.
type Validator struct {
	rules  []Rule
	logger *slog.Logger
}

var _ ports.CommandValidator = (*Validator)(nil)

func NewValidator(logger *slog.Logger, rules ...Rule) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Validator{
		rules:  rules,
		logger: logger.With("component", "security"),
	}
}

func (v *Validator) Validate(command string) []domain.Violation {
	var violations []domain.Violation
	for _, rule := range v.rules {
		match := rule.Pattern.FindString(command)
		if match == "" {
			continue
		}
		violations = append(violations, domain.Violation{
			Rule:     rule.Name,
			Message:  rule.Message,
			Severity: rule.Severity,
			Match:    match,
		})
	}

	if len(violations) > 0 {
		v.logger.Warn("command rejected", "command", command, "violations", len(violations))
	}
	return violations
}
