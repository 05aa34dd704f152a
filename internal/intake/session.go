package intake

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type draft struct {
	scratch  string
	override string
}

// Session is one live run through the intake steps. Answers only ever hold
// values for steps before the current one.
type Session struct {
	ID        string
	CreatedAt time.Time

	steps []StepDefinition
	dir   *Directory
	now   func() time.Time

	phase    Phase
	index    int
	answers  map[string]string
	drafts   map[string]draft
	scratch  string
	override string
	country  Country
	selector *CountrySelector

	submissionID string
	submittedAt  time.Time
	updatedAt    time.Time

	mu sync.Mutex
}

func NewSession(id string, steps []StepDefinition, dir *Directory) *Session {
	return newSession(id, steps, dir, time.Now)
}

func newSession(id string, steps []StepDefinition, dir *Directory, now func() time.Time) *Session {
	if dir == nil {
		dir = DefaultDirectory()
	}
	t := now().UTC()
	s := &Session{
		ID:        id,
		CreatedAt: t,
		steps:     steps,
		dir:       dir,
		now:       now,
		selector:  NewCountrySelector(dir),
	}
	s.clear()
	s.updatedAt = t
	return s
}

func (s *Session) clear() {
	s.phase = PhaseEditing
	s.index = 0
	s.answers = make(map[string]string, len(s.steps))
	s.drafts = make(map[string]draft)
	s.scratch = ""
	s.override = ""
	s.country = s.dir.Default()
	s.selector.Close()
	s.submissionID = ""
	s.submittedAt = time.Time{}
}

func (s *Session) touch() { s.updatedAt = s.now().UTC() }

// Advance commits the current step and moves forward. A refused transition
// leaves the session untouched.
func (s *Session) Advance() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitted {
		return s.snapshot(), ErrOutOfRange
	}
	st := s.steps[s.index]
	if !IsValid(st, s.scratch, s.override) {
		return s.snapshot(), ErrInvalidStepValue
	}
	s.answers[st.ID] = Resolve(st, s.scratch, s.override, s.country)
	delete(s.drafts, st.ID)
	s.scratch, s.override = "", ""
	s.index++
	s.touch()
	if s.index == len(s.steps) {
		s.phase = PhaseSubmitted
		s.submissionID = uuid.NewString()
		s.submittedAt = s.updatedAt
		s.selector.Close()
		snap := s.snapshot()
		sub := s.submission()
		snap.JustCompleted = true
		snap.Submission = &sub
		return snap, nil
	}
	if d, ok := s.drafts[s.steps[s.index].ID]; ok {
		s.scratch, s.override = d.scratch, d.override
	}
	return s.snapshot(), nil
}

// Retreat moves back one step and reopens its committed answer for editing.
func (s *Session) Retreat() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitted || s.index == 0 {
		return s.snapshot(), ErrOutOfRange
	}
	cur := s.steps[s.index]
	if s.scratch != "" || s.override != "" {
		s.drafts[cur.ID] = draft{scratch: s.scratch, override: s.override}
	} else {
		delete(s.drafts, cur.ID)
	}
	s.index--
	prev := s.steps[s.index]
	v, ok := s.answers[prev.ID]
	delete(s.answers, prev.ID)
	s.scratch, s.override = "", ""
	if ok {
		s.restore(prev, v)
	}
	s.touch()
	return s.snapshot(), nil
}

func (s *Session) restore(st StepDefinition, v string) {
	switch st.Kind {
	case KindPhone:
		c := s.country
		if v != c.CallingCode && !strings.HasPrefix(v, c.CallingCode+" ") {
			if m, ok := s.dir.MatchCallingCode(v); ok {
				c = m
			}
		}
		if v == c.CallingCode || strings.HasPrefix(v, c.CallingCode+" ") {
			s.country = c
			v = strings.TrimSpace(strings.TrimPrefix(v, c.CallingCode))
		}
		s.scratch = v
	case KindSelect:
		if v != OtherOption && hasOption(st, v) {
			s.scratch = v
			return
		}
		s.scratch, s.override = OtherOption, v
	default:
		s.scratch = v
	}
}

// UpdateScratch replaces the uncommitted value of the current step. No
// validation happens until Advance.
func (s *Session) UpdateScratch(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitted {
		return ErrReadOnly
	}
	s.scratch = v
	s.touch()
	return nil
}

// UpdateOverride sets the free text used when a select step has OtherOption chosen.
func (s *Session) UpdateOverride(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitted {
		return ErrReadOnly
	}
	s.override = v
	s.touch()
	return nil
}

func (s *Session) SelectCountry(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitted {
		return ErrReadOnly
	}
	c, ok := s.dir.Lookup(code)
	if !ok {
		return ErrUnknownCountry
	}
	s.country = c
	s.selector.Close()
	s.touch()
	return nil
}

func (s *Session) OpenSelector() (SelectorView, error) {
	return s.withSelector(func(cs *CountrySelector) { cs.Open() })
}

func (s *Session) CloseSelector() (SelectorView, error) {
	return s.withSelector(func(cs *CountrySelector) { cs.Close() })
}

func (s *Session) SetSelectorQuery(q string) (SelectorView, error) {
	return s.withSelector(func(cs *CountrySelector) { cs.SetQuery(q) })
}

func (s *Session) withSelector(fn func(*CountrySelector)) (SelectorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseSubmitted {
		return s.selector.View(), ErrReadOnly
	}
	fn(s.selector)
	s.touch()
	return s.selector.View(), nil
}

// Reset returns to the first step with nothing committed, from any state.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.touch()
	return s.snapshot()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	snap := Snapshot{
		SessionID:       s.ID,
		Phase:           s.phase,
		StepIndex:       s.index,
		StepCount:       len(s.steps),
		Scratch:         s.scratch,
		Override:        s.override,
		SelectedCountry: s.country,
		Selector:        s.selector.View(),
		Answers:         answers,
		Complete:        s.phase == PhaseSubmitted,
		UpdatedAt:       s.updatedAt,
	}
	if s.phase == PhaseEditing {
		st := s.steps[s.index]
		snap.Step = &st
		snap.CanAdvance = IsValid(st, s.scratch, s.override)
	}
	return snap
}

func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseSubmitted
}

// Submission returns the committed answers once every step has been advanced past.
func (s *Session) Submission() (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseSubmitted {
		return Submission{}, ErrNotComplete
	}
	return s.submission(), nil
}

func (s *Session) submission() Submission {
	answers := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	return Submission{
		ID:          s.submissionID,
		SessionID:   s.ID,
		Answers:     answers,
		CountryCode: s.country.Code,
		SubmittedAt: s.submittedAt,
	}
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
