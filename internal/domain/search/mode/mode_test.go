package mode

import "testing"

func TestIsValid(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{Hybrid, true},
		{Vector, true},
		{BM25, true},
		{Mode("keyword"), false},
		{Mode("HYBRID"), false},
		{Mode(""), false},
	}

	for _, tt := range tests {
		if got := tt.mode.IsValid(); got != tt.want {
			t.Errorf("Mode(%q).IsValid() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}
