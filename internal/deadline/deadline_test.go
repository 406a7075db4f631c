package deadline

import (
	"testing"
	"time"
)

const (
	grace     = 30 * time.Minute
	maxWindow = 120 * time.Minute
)

func mustOccurrence(t *testing.T, alarmTime, date string, loc *time.Location) Occurrence {
	t.Helper()
	occ, err := For(alarmTime, date, loc, grace, maxWindow)
	if err != nil {
		t.Fatalf("For(%q, %q): %v", alarmTime, date, err)
	}
	return occ
}

func TestParseAlarmTime(t *testing.T) {
	tests := []struct {
		in      string
		h, m, s int
		wantErr bool
	}{
		{in: "07:00", h: 7, m: 0, s: 0},
		{in: "07:00:30", h: 7, m: 0, s: 30},
		{in: "23:59:59", h: 23, m: 59, s: 59},
		{in: "00:00", h: 0, m: 0, s: 0},
		{in: "24:00", wantErr: true},
		{in: "07:60", wantErr: true},
		{in: "7am", wantErr: true},
		{in: "", wantErr: true},
		{in: "07:00:00:00", wantErr: true},
	}
	for _, tt := range tests {
		h, m, s, err := ParseAlarmTime(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAlarmTime(%q): expected error, got %d:%d:%d", tt.in, h, m, s)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAlarmTime(%q): %v", tt.in, err)
			continue
		}
		if h != tt.h || m != tt.m || s != tt.s {
			t.Errorf("ParseAlarmTime(%q) = %d:%d:%d, want %d:%d:%d", tt.in, h, m, s, tt.h, tt.m, tt.s)
		}
	}
}

func TestOccurrenceWindows(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	occ := mustOccurrence(t, "07:00", "2026-03-02", loc)

	wantTrigger := time.Date(2026, 3, 2, 7, 0, 0, 0, loc)
	if !occ.TriggerAt.Equal(wantTrigger) {
		t.Errorf("TriggerAt = %v, want %v", occ.TriggerAt, wantTrigger)
	}
	if !occ.Deadline.Equal(wantTrigger.Add(grace)) {
		t.Errorf("Deadline = %v, want %v", occ.Deadline, wantTrigger.Add(grace))
	}
	if !occ.MaxVerifyBy.Equal(wantTrigger.Add(maxWindow)) {
		t.Errorf("MaxVerifyBy = %v, want %v", occ.MaxVerifyBy, wantTrigger.Add(maxWindow))
	}
}

func TestDeadlineBoundary(t *testing.T) {
	loc := time.UTC
	occ := mustOccurrence(t, "07:00", "2026-03-02", loc)
	deadline := time.Date(2026, 3, 2, 7, 30, 0, 0, loc)

	tests := []struct {
		name    string
		at      time.Time
		onTime  bool
		due     bool
		accepts bool
	}{
		{name: "one second before deadline", at: deadline.Add(-time.Second), onTime: true, due: false, accepts: true},
		{name: "exactly at deadline", at: deadline, onTime: true, due: false, accepts: true},
		{name: "one second after deadline", at: deadline.Add(time.Second), onTime: false, due: true, accepts: true},
		{name: "at max window", at: occ.MaxVerifyBy, onTime: false, due: true, accepts: true},
		{name: "past max window", at: occ.MaxVerifyBy.Add(time.Second), onTime: false, due: true, accepts: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := occ.OnTime(tt.at); got != tt.onTime {
				t.Errorf("OnTime(%v) = %v, want %v", tt.at, got, tt.onTime)
			}
			if got := occ.Due(tt.at); got != tt.due {
				t.Errorf("Due(%v) = %v, want %v", tt.at, got, tt.due)
			}
			if got := occ.Acceptable(tt.at); got != tt.accepts {
				t.Errorf("Acceptable(%v) = %v, want %v", tt.at, got, tt.accepts)
			}
		})
	}
}

func TestNextRollsOver(t *testing.T) {
	loc := time.UTC

	// Before today's trigger, Next stays on today.
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, loc)
	occ, err := Next("07:00", now, loc, grace, maxWindow)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if occ.Date != "2026-03-02" {
		t.Errorf("Next before trigger: date = %s, want 2026-03-02", occ.Date)
	}

	// After today's trigger, Next rolls to tomorrow.
	now = time.Date(2026, 3, 2, 7, 0, 1, 0, loc)
	occ, err = Next("07:00", now, loc, grace, maxWindow)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if occ.Date != "2026-03-03" {
		t.Errorf("Next after trigger: date = %s, want 2026-03-03", occ.Date)
	}
}

func TestDSTSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 2026-03-08 the clock jumps 02:00 -> 03:00. A 07:00 alarm still fires at
	// wall-clock 07:00, one absolute hour earlier than the day before.
	before := mustOccurrence(t, "07:00", "2026-03-07", loc)
	after := mustOccurrence(t, "07:00", "2026-03-08", loc)

	gap := after.TriggerAt.Sub(before.TriggerAt)
	if gap != 23*time.Hour {
		t.Errorf("trigger gap across spring forward = %v, want 23h", gap)
	}
	if after.Deadline.Sub(after.TriggerAt) != grace {
		t.Errorf("grace window changed across DST: %v", after.Deadline.Sub(after.TriggerAt))
	}
}

func TestTodayUsesLocationDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 23:30 UTC on March 1 is already March 2 in Tokyo.
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	occ, err := Today("07:00", now, tokyo, grace, maxWindow)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if occ.Date != "2026-03-02" {
		t.Errorf("Today date = %s, want 2026-03-02", occ.Date)
	}
}
