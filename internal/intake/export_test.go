package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExportSubmissionAppends(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "submissions.txt")
	sub := Submission{
		ID:        "sub-1",
		SessionID: "sess-1",
		Answers: map[string]string{
			"message": "Need CDR by June",
			"name":    "Asha Gurung",
			"phone":   "+977 9801234567",
			"utm":     "facebook",
		},
		SubmittedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	if err := ExportSubmission(sub, DefaultSteps(), file); err != nil {
		t.Fatalf("export: %v", err)
	}
	sub.ID = "sub-2"
	if err := ExportSubmission(sub, DefaultSteps(), file); err != nil {
		t.Fatalf("second export: %v", err)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if !strings.Contains(out, "sub-1") || !strings.Contains(out, "sub-2") {
		t.Fatal("both submissions should be present")
	}
	name := strings.Index(out, "name: Asha Gurung")
	phone := strings.Index(out, "phone: +977 9801234567")
	msg := strings.Index(out, "message: Need CDR by June")
	utm := strings.Index(out, "utm: facebook")
	if !(name >= 0 && name < phone && phone < msg && msg < utm) {
		t.Fatalf("answers should follow step order:\n%s", out)
	}
}
