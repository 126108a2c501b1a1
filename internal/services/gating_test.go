package services

import "testing"

func TestGatingFor(t *testing.T) {
	tests := []struct {
		name         string
		minWatchTime float64
		watched      float64
		completed    bool
		wantLabel    string
		wantRemain   int
	}{
		{"zero requirement unlocks on visit", 0, 0, false, "unlocked", 0},
		{"negative requirement unlocks on visit", -5, 0, false, "unlocked", 0},
		{"under threshold stays locked", 120, 60, false, "locked", 60},
		{"just under threshold", 120, 119.9, false, "locked", 1},
		{"exactly at threshold unlocks", 120, 120, false, "unlocked", 0},
		{"over threshold unlocks", 120, 500, false, "unlocked", 0},
		{"fractional remainder rounds up", 30, 28.2, false, "locked", 2},
		{"completed overrides everything", 120, 0, true, "completed", 0},
		{"nothing watched", 90, 0, false, "locked", 90},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GatingFor(tc.minWatchTime, tc.watched, tc.completed)
			if got.Label() != tc.wantLabel {
				t.Errorf("GatingFor(%v, %v, %v) = %q, want %q",
					tc.minWatchTime, tc.watched, tc.completed, got.Label(), tc.wantLabel)
			}
			if got.RemainingSeconds != tc.wantRemain {
				t.Errorf("RemainingSeconds = %d, want %d", got.RemainingSeconds, tc.wantRemain)
			}
		})
	}
}

func TestGatingStateLocked(t *testing.T) {
	if !(GatingState{}).Locked() {
		t.Error("zero GatingState should report locked")
	}
	if (GatingState{Unlocked: true}).Locked() {
		t.Error("unlocked state should not report locked")
	}
	if (GatingState{Completed: true}).Locked() {
		t.Error("completed state should not report locked")
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"no lessons", 0, 0, 0},
		{"nothing done", 0, 4, 0},
		{"half done", 2, 4, 50},
		{"one of three rounds", 1, 3, 33},
		{"two of three rounds", 2, 3, 67},
		{"all done", 4, 4, 100},
		{"rounding never fakes completion", 249, 250, 99},
		{"single lesson course", 1, 1, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := progressPercent(tc.completed, tc.total); got != tc.want {
				t.Errorf("progressPercent(%d, %d) = %d, want %d", tc.completed, tc.total, got, tc.want)
			}
		})
	}
}
