package grading

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  Hello,   World!  ", "hello world"},
		{"Pain 8/10 since 3 AM.", "pain 8 10 since 3 am"},
		{"¿Qué tal?", "qu tal"},
		{"ALL-CAPS_WITH.PUNCT", "all caps with punct"},
		{"\t\n  \t", ""},
	}
	for _, tc := range cases {
		if got := NormalizeText(tc.in); got != tc.want {
			t.Fatalf("NormalizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeKeywords(t *testing.T) {
	got := normalizeKeywords([]string{" Chest Pain! ", "", "   ", "SOB"})
	want := []string{"chest pain", "sob"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalizeKeywords mismatch (-want +got):\n%s", diff)
	}
}

func TestKeywordsFromPhrase(t *testing.T) {
	got := keywordsFromPhrase("Ask about onset of the pain")
	want := []string{"about", "onset", "pain"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keywordsFromPhrase mismatch (-want +got):\n%s", diff)
	}
}
