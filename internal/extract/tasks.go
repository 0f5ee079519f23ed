package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/mikey/llm-mail-analyzer/internal/core"
)

const (
	maxTasks          = 5
	maxTaskDescLength = 200
)

// Request phrasing, explicit todo markers, and deadline phrasing. Each
// pattern's first capture group is the task description.
var taskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:please|could you|can you|would you)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)\b(?:need to|needs to|have to|must)\s+([^.!?\n]+)`),
	regexp.MustCompile(`(?i)\b(?:todo|to-do|action item)s?\s*[:\-]\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\b(?:due|deadline)\s*[:\-]\s*([^.!?\n]+)`),
}

// Tasks extracts action items from the body. Each match yields one task with
// a description capped at 200 characters and an optional deadline pulled from
// the matched phrase by the date extractor. Duplicate descriptions collapse
// and the result is capped at 5 tasks. Task priority is inherited from the
// message priority by the caller once it is known.
func Tasks(body string, now time.Time) []core.Task {
	tasks := []core.Task{}
	seen := make(map[string]struct{})

	for _, pattern := range taskPatterns {
		for _, match := range pattern.FindAllStringSubmatch(body, -1) {
			desc := strings.TrimSpace(match[1])
			if desc == "" {
				continue
			}
			if len(desc) > maxTaskDescLength {
				desc = desc[:maxTaskDescLength]
			}

			key := strings.ToLower(desc)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			tasks = append(tasks, core.Task{
				Description: desc,
				Deadline:    ExtractDate(desc, now),
			})
			if len(tasks) >= maxTasks {
				return tasks
			}
		}
	}
	return tasks
}
