package game

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"20:00", 1200, false},
		{"00:30", 30, false},
		{"1:05", 65, false},
		{"15:00", 900, false},
		{"20", 0, true},
		{"", 0, true},
		{"20:60", 0, true},
		{"-1:00", 0, true},
		{"aa:bb", 0, true},
		{"10:00:00", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d", tc.in, got)
			} else if !errors.Is(err, ErrValidation) {
				t.Errorf("ParseClock(%q): error does not wrap ErrValidation: %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPeriodLabel(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{1, "1°"},
		{2, "2°"},
		{3, "3°"},
		{4, "OT"},
		{7, "OT"},
	}
	for _, tc := range cases {
		s := State{PeriodIndex: tc.index}
		if got := s.PeriodLabel(); got != tc.want {
			t.Errorf("PeriodLabel(index=%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func TestDefaultState(t *testing.T) {
	s := DefaultState()

	if s.HomeName != "Casa" || s.AwayName != "Ospiti" {
		t.Errorf("unexpected default names: %q / %q", s.HomeName, s.AwayName)
	}
	if s.ColorHome == s.ColorAway {
		t.Error("default colors must be distinct")
	}
	if s.PeriodIndex != 1 {
		t.Errorf("default periodIndex = %d, want 1", s.PeriodIndex)
	}
	if s.PeriodDuration != 1200 || s.TimerRemaining != 1200 {
		t.Errorf("default period clocks = %d/%d, want 1200/1200", s.PeriodDuration, s.TimerRemaining)
	}
	if s.IntervalDuration != 900 {
		t.Errorf("default interval duration = %d, want 900", s.IntervalDuration)
	}
	if !s.ObsVisible {
		t.Error("overlay should default to visible")
	}
	if s.Penalties == nil {
		t.Error("penalties must be non-nil so the wire form is [] not null")
	}

	snap := s.snapshot()
	if snap.Period != "1°" {
		t.Errorf("snapshot period label = %q, want 1°", snap.Period)
	}
	if snap.SirenOn {
		t.Error("sirenOn must never be persisted in a snapshot")
	}
}
