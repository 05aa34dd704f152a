package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExportSubmission appends a readable record of sub to filename. Answers follow
// the step order; keys not covered by steps are appended alphabetically.
func ExportSubmission(sub Submission, steps []StepDefinition, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CDR Intake Submission %s\n", sub.ID))
	sb.WriteString(fmt.Sprintf("Session: %s\n", sub.SessionID))
	sb.WriteString(fmt.Sprintf("Submitted: %s\n", sub.SubmittedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("-", 40) + "\n")

	seen := make(map[string]bool, len(sub.Answers))
	for _, st := range steps {
		v, ok := sub.Answers[st.ID]
		if !ok {
			continue
		}
		seen[st.ID] = true
		sb.WriteString(fmt.Sprintf("%s: %s\n", st.ID, v))
	}
	rest := make([]string, 0)
	for k := range sub.Answers {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		sb.WriteString(fmt.Sprintf("%s: %s\n", k, sub.Answers[k]))
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
