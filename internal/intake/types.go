package intake

import "time"

type Phase string

const (
	PhaseEditing   Phase = "Editing"
	PhaseSubmitted Phase = "Submitted"
)

type StepKind string

const (
	KindText     StepKind = "text"
	KindEmail    StepKind = "email"
	KindPhone    StepKind = "phone"
	KindSelect   StepKind = "select"
	KindFreeform StepKind = "freeform"
)

// OtherOption is the select value that requires a free-text override.
const OtherOption = "Other"

type StepDefinition struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Kind        StepKind `json:"kind"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

type Country struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	CallingCode   string `json:"callingCode"`
	ExampleFormat string `json:"exampleFormat"`
}

type SelectorView struct {
	Open    bool      `json:"open"`
	Query   string    `json:"query"`
	Matches []Country `json:"matches,omitempty"`
}

// Snapshot is a read-only copy of a session handed to presentation layers.
type Snapshot struct {
	SessionID       string            `json:"sessionId"`
	Phase           Phase             `json:"phase"`
	StepIndex       int               `json:"stepIndex"`
	StepCount       int               `json:"stepCount"`
	Step            *StepDefinition   `json:"step,omitempty"`
	Scratch         string            `json:"scratch"`
	Override        string            `json:"override"`
	SelectedCountry Country           `json:"selectedCountry"`
	Selector        SelectorView      `json:"selector"`
	Answers         map[string]string `json:"answers"`
	Complete        bool              `json:"complete"`
	CanAdvance      bool              `json:"canAdvance"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	// JustCompleted and Submission are set only on the snapshot returned by
	// the completing Advance.
	JustCompleted bool        `json:"-"`
	Submission    *Submission `json:"-"`
}

// Submission is the flat answer set handed to delivery once a session completes.
type Submission struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"sessionId"`
	Answers     map[string]string `json:"answers"`
	CountryCode string            `json:"countryCode"`
	SubmittedAt time.Time         `json:"submittedAt"`
}
