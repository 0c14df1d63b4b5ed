package recall

import (
	"errors"
	"testing"
)

func TestTallyCountsAddUp(t *testing.T) {
	var tally Tally
	tally.Insert()
	tally.Insert()
	tally.Skip()
	tally.Fail("F-3", errors.New("constraint failed"))
	tally.Fail("F-4", nil)

	if tally.Total != 5 {
		t.Fatalf("total = %d, want 5", tally.Total)
	}
	if tally.Inserted+tally.Errors+tally.Skipped != tally.Total {
		t.Fatalf("counts do not add up: %+v", tally)
	}
	if len(tally.Failures) != 2 || tally.Failures[0].RecallNumber != "F-3" || tally.Failures[1].Reason != "unknown error" {
		t.Fatalf("failures = %+v", tally.Failures)
	}
	if got := tally.Message(); got != "Processed 5 recalls. Inserted: 2, Errors: 2, Skipped: 1" {
		t.Fatalf("Message() = %q", got)
	}
}

func TestAuthorityForSource(t *testing.T) {
	cases := map[string]string{
		"":      AuthorityUSDA,
		"fsis":  AuthorityUSDA,
		"USDA":  AuthorityUSDA,
		" fda ": AuthorityFDA,
	}
	for in, want := range cases {
		got, err := AuthorityForSource(in)
		if err != nil {
			t.Fatalf("AuthorityForSource(%q) error = %v", in, err)
		}
		if got != want {
			t.Fatalf("AuthorityForSource(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := AuthorityForSource("enforcements"); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("AuthorityForSource(unknown) error = %v, want ErrUnknownSource", err)
	}
}
