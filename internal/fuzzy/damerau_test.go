package fuzzy

import "testing"

func TestDistanceIdentical(t *testing.T) {
	if got := Distance("sfo-exit-01", "sfo-exit-01"); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestDistanceEmptyStrings(t *testing.T) {
	if got := Distance("", "abc"); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := Distance("abc", ""); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestDistanceTranspositionCheaperThanTwoSubstitutions(t *testing.T) {
	// "ab" -> "ba" is a single adjacent transposition under true
	// Damerau-Levenshtein, not two substitutions.
	if got := Distance("ab", "ba"); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestDistanceSubstitution(t *testing.T) {
	if got := Distance("kitten", "sitten"); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestDistanceClassicKittenSitting(t *testing.T) {
	if got := Distance("kitten", "sitting"); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestNearestPicksClosest(t *testing.T) {
	candidates := []string{"nyc-exit-03", "sfo-exit-01", "lax-exit-02"}
	best, dist, ok := Nearest("sfo-exit-1", candidates)
	if !ok {
		t.Fatal("expected ok")
	}
	if best != "sfo-exit-01" {
		t.Fatalf("got %q, want %q", best, "sfo-exit-01")
	}
	if dist != 1 {
		t.Fatalf("got distance %d, want 1", dist)
	}
}

func TestNearestEmptyCandidates(t *testing.T) {
	if _, _, ok := Nearest("anything", nil); ok {
		t.Fatal("expected ok=false for empty candidates")
	}
}
