package relay

import (
	"context"

	"github.com/kiliankoe/cdrintake/internal/intake"
)

// Relay hands a completed submission to an outside system (CRM, mail relay).
type Relay interface {
	Deliver(ctx context.Context, sub intake.Submission) error
}
