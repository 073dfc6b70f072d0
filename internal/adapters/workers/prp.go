package workers

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/eleven-am/prpflow/internal/domain"
)

var (
	headingRe  = regexp.MustCompile(`^#{1,6}\s+(.+?)\s*$`)
	taskRe     = regexp.MustCompile(`^\s*\d+[.)]\s+(.+?)\s*$`)
	fenceRe    = regexp.MustCompile("^\\s*```\\s*([A-Za-z0-9_-]*)")
	shellFence = map[string]bool{"bash": true, "sh": true, "shell": true, "zsh": true, "nu": true, "console": true}
)

// parsedPRP is what the executor needs from a PRP document: the numbered
// implementation tasks and the commands from shell code blocks.
type parsedPRP struct {
	Title    string
	Tasks    []string
	Commands []string
}

const maxPRPLine = 1024 * 1024

func parsePRP(content string) (parsedPRP, error) {
	var out parsedPRP

	inTasks := false
	inFence := false
	shellBlock := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxPRPLine)
	for scanner.Scan() {
		line := scanner.Text()

		if m := fenceRe.FindStringSubmatch(line); m != nil {
			if inFence {
				inFence, shellBlock = false, false
			} else {
				inFence = true
				shellBlock = shellFence[strings.ToLower(m[1])]
			}
			continue
		}

		if inFence {
			if shellBlock {
				if cmd := commandLine(line); cmd != "" {
					out.Commands = append(out.Commands, cmd)
				}
			}
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			if out.Title == "" && strings.HasPrefix(line, "# ") {
				out.Title = m[1]
			}
			inTasks = strings.Contains(strings.ToLower(m[1]), "implementation tasks")
			continue
		}

		if inTasks {
			if m := taskRe.FindStringSubmatch(line); m != nil {
				out.Tasks = append(out.Tasks, m[1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return parsedPRP{}, domain.NewValidationError("prp", fmt.Sprintf("unreadable content: %v", err))
	}

	return out, nil
}

func commandLine(line string) string {
	cmd := strings.TrimSpace(line)
	cmd = strings.TrimPrefix(cmd, "$ ")
	if cmd == "" || strings.HasPrefix(cmd, "#") {
		return ""
	}
	return cmd
}
