package gesture

import "testing"

func TestLabelsName(t *testing.T) {
	labels := Labels{"down", "idle", "left", "right", "unknown", "up"}

	tests := []struct {
		index int
		want  string
	}{
		{0, "down"},
		{5, "up"},
		{NoGesture, "unknown"},
		{6, "unknown"},
		{-7, "unknown"},
	}

	for _, tt := range tests {
		if got := labels.Name(tt.index); got != tt.want {
			t.Errorf("Name(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestLabelsIndex(t *testing.T) {
	labels := Labels{"down", "idle", "left", "right", "unknown", "up"}

	if got := labels.Index("left"); got != 2 {
		t.Errorf("Index(left) = %d, want 2", got)
	}
	if got := labels.Index("wave"); got != NoGesture {
		t.Errorf("Index(wave) = %d, want NoGesture", got)
	}
}
