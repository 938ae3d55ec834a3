package match

import "testing"

func TestRatingBasedStrategy_IsMatch(t *testing.T) {
	tests := []struct {
		name    string
		maxDiff int
		ratingA int
		ratingB int
		want    bool
	}{
		{"equal ratings", 300, 1500, 1500, true},
		{"within threshold", 300, 1500, 1700, true},
		{"exactly at threshold", 300, 1500, 1800, true},
		{"just over threshold", 300, 1500, 1801, false},
		{"symmetric", 300, 1800, 1500, true},
		{"far apart", 300, 1000, 2000, false},
		{"tight threshold", 50, 1000, 1060, false},
		{"negative rating", 300, -100, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRatingBasedStrategy(tt.maxDiff)
			a := NewPlayer(1, "a", tt.ratingA)
			b := NewPlayer(2, "b", tt.ratingB)
			if got := s.IsMatch(a, b); got != tt.want {
				t.Errorf("IsMatch(%d, %d) with maxDiff=%d = %v, want %v",
					tt.ratingA, tt.ratingB, tt.maxDiff, got, tt.want)
			}
		})
	}
}

func TestRatingBasedStrategy_Defaults(t *testing.T) {
	s := NewRatingBasedStrategy(0)
	if s.MaxRatingDiff() != DefaultMaxRatingDiff {
		t.Errorf("non-positive diff should fall back to %d, got %d",
			DefaultMaxRatingDiff, s.MaxRatingDiff())
	}

	s = NewRatingBasedStrategy(150)
	if s.MaxRatingDiff() != 150 {
		t.Errorf("MaxRatingDiff() = %d, want 150", s.MaxRatingDiff())
	}
}
