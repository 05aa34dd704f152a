package intake

import (
	"errors"
	"testing"
)

func newTestSession() *Session {
	return NewSession("test", DefaultSteps(), DefaultDirectory())
}

func mustAdvance(t *testing.T, s *Session, value string) Snapshot {
	t.Helper()
	if err := s.UpdateScratch(value); err != nil {
		t.Fatalf("update scratch: %v", err)
	}
	snap, err := s.Advance()
	if err != nil {
		t.Fatalf("advance with %q: %v", value, err)
	}
	return snap
}

func TestIntakeScenario(t *testing.T) {
	s := newTestSession()

	snap := s.Snapshot()
	if snap.StepIndex != 0 || snap.Phase != PhaseEditing || len(snap.Answers) != 0 {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	snap = mustAdvance(t, s, "Asha Gurung")
	if snap.StepIndex != 1 || snap.Answers["name"] != "Asha Gurung" {
		t.Fatalf("expected name committed at step 1, got %+v", snap)
	}

	mustAdvance(t, s, "asha@example.com")

	snap = s.Snapshot()
	if snap.StepIndex != 2 || snap.SelectedCountry.CallingCode != "+977" {
		t.Fatalf("expected phone step with +977, got %+v", snap)
	}
	snap = mustAdvance(t, s, "9801234567")
	if snap.Answers["phone"] != "+977 9801234567" || snap.StepIndex != 3 {
		t.Fatalf("unexpected phone commit %+v", snap)
	}

	if err := s.UpdateScratch(OtherOption); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Advance(); !errors.Is(err, ErrInvalidStepValue) {
		t.Fatalf("expected ErrInvalidStepValue, got %v", err)
	}
	if snap = s.Snapshot(); snap.StepIndex != 3 || snap.CanAdvance {
		t.Fatalf("rejected advance should stay at step 3, got %+v", snap)
	}
	if err := s.UpdateOverride("Geotechnical Engineering"); err != nil {
		t.Fatal(err)
	}
	if !s.Snapshot().CanAdvance {
		t.Fatal("override should make the step advanceable")
	}
	snap, err := s.Advance()
	if err != nil {
		t.Fatalf("advance with override: %v", err)
	}
	if snap.Answers["field"] != "Geotechnical Engineering" {
		t.Fatalf("expected override committed, got %q", snap.Answers["field"])
	}
	if snap.Override != "" || snap.Scratch != "" {
		t.Fatal("scratch and override should be cleared after advance")
	}

	snap = mustAdvance(t, s, "Three career episodes by March.")
	if !snap.Complete || !snap.JustCompleted || snap.Phase != PhaseSubmitted {
		t.Fatalf("expected completion, got %+v", snap)
	}
	if len(snap.Answers) != 5 {
		t.Fatalf("expected 5 answers, got %d", len(snap.Answers))
	}

	sub, err := s.Submission()
	if err != nil {
		t.Fatalf("submission: %v", err)
	}
	if sub.ID == "" || sub.SessionID != "test" || sub.Answers["email"] != "asha@example.com" {
		t.Fatalf("unexpected submission %+v", sub)
	}
}

func TestInvalidAdvanceIsIdempotent(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha")
	before := s.Snapshot()
	for i := 0; i < 3; i++ {
		if err := s.UpdateScratch("   "); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Advance(); !errors.Is(err, ErrInvalidStepValue) {
			t.Fatalf("expected rejection, got %v", err)
		}
	}
	after := s.Snapshot()
	if after.StepIndex != before.StepIndex || len(after.Answers) != len(before.Answers) || after.Answers["name"] != "Asha" {
		t.Fatalf("rejected advance mutated session: %+v", after)
	}
	if _, ok := after.Answers["email"]; ok {
		t.Fatal("current step must not be committed")
	}
}

func TestRetreatAdvanceRoundTrip(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha Gurung")
	mustAdvance(t, s, "asha@example.com")
	mustAdvance(t, s, "9801234567")
	committed := s.Snapshot().Answers["phone"]

	snap, err := s.Retreat()
	if err != nil {
		t.Fatalf("retreat: %v", err)
	}
	if snap.StepIndex != 2 || snap.Scratch != "9801234567" {
		t.Fatalf("retreat should reopen the raw local number, got %+v", snap)
	}
	if _, ok := snap.Answers["phone"]; ok {
		t.Fatal("reopened step must not stay committed")
	}

	snap, err = s.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if snap.StepIndex != 3 || snap.Answers["phone"] != committed {
		t.Fatalf("round trip changed state: %+v", snap)
	}
}

func TestRetreatRestoresCountryFromCommittedPhone(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha")
	mustAdvance(t, s, "asha@example.com")
	if err := s.SelectCountry("AU"); err != nil {
		t.Fatal(err)
	}
	mustAdvance(t, s, "412 345 678")
	if got := s.Snapshot().Answers["phone"]; got != "+61 412 345 678" {
		t.Fatalf("unexpected phone %q", got)
	}
	if err := s.SelectCountry("NP"); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Retreat()
	if err != nil {
		t.Fatal(err)
	}
	if snap.SelectedCountry.Code != "AU" || snap.Scratch != "412 345 678" {
		t.Fatalf("expected Australian number restored, got %+v", snap)
	}
}

func TestRetreatRestoresOtherOverride(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha")
	mustAdvance(t, s, "asha@example.com")
	mustAdvance(t, s, "9801234567")
	s.UpdateScratch(OtherOption)
	s.UpdateOverride("Geotechnical Engineering")
	if _, err := s.Advance(); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Retreat()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Scratch != OtherOption || snap.Override != "Geotechnical Engineering" {
		t.Fatalf("expected Other with override, got %+v", snap)
	}
	snap, err = s.Advance()
	if err != nil || snap.Answers["field"] != "Geotechnical Engineering" {
		t.Fatalf("round trip failed: %v %+v", err, snap)
	}
}

func TestBlankSelectIsRefused(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha")
	mustAdvance(t, s, "asha@example.com")
	mustAdvance(t, s, "9801234567")
	if err := s.UpdateScratch("   "); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Advance(); !errors.Is(err, ErrInvalidStepValue) {
		t.Fatalf("expected ErrInvalidStepValue, got %v", err)
	}
	snap := s.Snapshot()
	if snap.StepIndex != 3 || snap.CanAdvance {
		t.Fatalf("blank select should stay at step 3, got %+v", snap)
	}
	if _, ok := snap.Answers["field"]; ok {
		t.Fatal("blank select must not be committed")
	}
}

func TestUnlistedSelectValueRoundTrips(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha")
	mustAdvance(t, s, "asha@example.com")
	mustAdvance(t, s, "9801234567")
	snap := mustAdvance(t, s, " Acoustic Engineering ")
	if snap.Answers["field"] != "Acoustic Engineering" {
		t.Fatalf("unexpected field %q", snap.Answers["field"])
	}
	snap, err := s.Retreat()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Scratch != OtherOption || snap.Override != "Acoustic Engineering" {
		t.Fatalf("expected Other with override, got %+v", snap)
	}
	snap, err = s.Advance()
	if err != nil || snap.StepIndex != 4 || snap.Answers["field"] != "Acoustic Engineering" {
		t.Fatalf("round trip failed: %v %+v", err, snap)
	}
}

func TestRetreatKeepsDraftOfLaterStep(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha")
	s.UpdateScratch("half-typed@")
	if _, err := s.Retreat(); err != nil {
		t.Fatal(err)
	}
	snap := mustAdvance(t, s, "Asha G")
	if snap.Scratch != "half-typed@" {
		t.Fatalf("expected draft restored, got %q", snap.Scratch)
	}
}

func TestOutOfRangeTransitions(t *testing.T) {
	s := newTestSession()
	if _, err := s.Retreat(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("retreat at step 0 should be refused, got %v", err)
	}
	for _, v := range []string{"a", "b", "c", "Civil Engineering", "e"} {
		mustAdvance(t, s, v)
	}
	if _, err := s.Advance(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("advance after submit should be refused, got %v", err)
	}
	if _, err := s.Retreat(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("retreat after submit should be refused, got %v", err)
	}
	if err := s.UpdateScratch("x"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := s.SelectCountry("AU"); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if len(s.Snapshot().Answers) != 5 {
		t.Fatal("answers should be frozen after submit")
	}
}

func TestReset(t *testing.T) {
	s := newTestSession()
	mustAdvance(t, s, "Asha")
	s.SelectCountry("AU")
	snap := s.Reset()
	if snap.StepIndex != 0 || len(snap.Answers) != 0 || snap.SelectedCountry.Code != "NP" {
		t.Fatalf("unexpected reset snapshot %+v", snap)
	}

	for _, v := range []string{"a", "b", "c", "Civil Engineering", "e"} {
		mustAdvance(t, s, v)
	}
	snap = s.Reset()
	if snap.Complete || snap.StepIndex != 0 || len(snap.Answers) != 0 {
		t.Fatalf("reset from submitted failed: %+v", snap)
	}
	if _, err := s.Submission(); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("expected ErrNotComplete after reset, got %v", err)
	}
}

func TestSelectCountryClosesSelector(t *testing.T) {
	s := newTestSession()
	if _, err := s.OpenSelector(); err != nil {
		t.Fatal(err)
	}
	v, err := s.SetSelectorQuery("austr")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Matches) != 1 || v.Matches[0].Code != "AU" {
		t.Fatalf("unexpected matches %+v", v.Matches)
	}
	if err := s.SelectCountry("AU"); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Selector.Open || snap.SelectedCountry.Code != "AU" {
		t.Fatalf("select should close selector, got %+v", snap.Selector)
	}
	if len(snap.Answers) != 0 {
		t.Fatal("selecting a country must not touch answers")
	}
	if err := s.SelectCountry("XX"); !errors.Is(err, ErrUnknownCountry) {
		t.Fatalf("expected ErrUnknownCountry, got %v", err)
	}
}
