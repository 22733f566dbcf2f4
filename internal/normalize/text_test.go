package normalize

import "testing"

func TestFoldText(t *testing.T) {
	cases := map[string]string{
		"Derecho de Pabellón":        "derecho de pabellon",
		"  IV-line   SET ":           "iv line set",
		"Jeringa 10cc (desechable).": "jeringa 10cc desechable",
		"Niño / Cuña":                "nino cuna",
		"":                           "",
		"---":                        "",
	}
	for in, want := range cases {
		if got := FoldText(in); got != want {
			t.Errorf("FoldText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasTerm_WordStart(t *testing.T) {
	folded := FoldText("Anesthesiologist fee; lab panel")
	for _, term := range []string{"anesthesi", "fee", "lab panel", "panel"} {
		if !HasTerm(folded, term) {
			t.Errorf("expected %q in %q", term, folded)
		}
	}
	if HasTerm("available rooms", "lab") {
		t.Error("lab must not match inside available")
	}
	if HasTerm("bright", "right") {
		t.Error("right must not match inside bright")
	}
	if !HasTerm("bright and right", "right") {
		t.Error("second occurrence of right should match")
	}
	if HasTerm("anything", "") {
		t.Error("empty term must never match")
	}
}

func TestHasWord_BothEnds(t *testing.T) {
	if !HasWord("surgeon fee", "fee") {
		t.Error("fee should match at the end of the text")
	}
	if !HasWord("lab panel", "lab") {
		t.Error("lab should match before a space")
	}
	if HasWord("feeding tube", "fee") {
		t.Error("fee must not match inside feeding")
	}
	if HasWord("labor room", "lab") {
		t.Error("lab must not match inside labor")
	}
	if !HasWord("labor lab", "lab") {
		t.Error("second occurrence of lab should match")
	}
	if _, ok := HasAnyWord("feeding tube", []string{"fee", "fees"}); ok {
		t.Error("unexpected word match")
	}
}

func TestHasAnyTerm_ListOrder(t *testing.T) {
	term, ok := HasAnyTerm("recovery room monitoring", []string{"monitoring", "recovery room"})
	if !ok || term != "monitoring" {
		t.Errorf("got %q %v, want monitoring", term, ok)
	}
	if _, ok := HasAnyTerm("office visit", []string{"syringe"}); ok {
		t.Error("unexpected match")
	}
}
