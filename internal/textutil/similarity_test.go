package textutil

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Naruto!!", "naruto"},
		{"  One   Piece  ", "one piece"},
		{"Hunter x Hunter (2011)", "hunter x hunter 2011"},
		{"Re:Zero\tkara\nHajimeru", "rezero kara hajimeru"},
		{"Pokémon", "pokmon"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"Naruto Shippuden", "  Bleach: Thousand-Year Blood War ", "ÀÉÎ 123", "x y"} {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"naruto", "naruto shippuden", 10},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := Distance(tt.b, tt.a); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d (symmetry)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Naruto!!", "naruto", 1.0},
		{"", "", 1.0},
		{"!!", "??", 1.0},
		{"abc", "", 0},
		{"Naruto Shippuden", "Naruto", 1 - 10.0/16.0},
		{"One Piece", "One Piece Film", 1 - 5.0/14.0},
		{"bleach", "bleech", 1 - 1.0/6.0},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if back := Similarity(tt.b, tt.a); math.Abs(back-got) > 1e-12 {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", tt.a, tt.b, got, back)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{{"a", "zzzz"}, {"Fullmetal Alchemist", "Brotherhood"}, {"x", "x"}}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		if s < 0 || s > 1 {
			t.Errorf("Similarity(%q, %q) = %v out of range", p[0], p[1], s)
		}
	}
}

func TestClamp01(t *testing.T) {
	if Clamp01(-0.5) != 0 || Clamp01(1.5) != 1 || Clamp01(0.25) != 0.25 {
		t.Fatal("Clamp01 did not bound values")
	}
}
