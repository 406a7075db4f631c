// Package deadline computes alarm occurrences. All arithmetic happens in the
// alarm's own time zone so DST transitions shift the wall clock, not the
// user's obligation.
package deadline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Occurrence pins one alarm firing to a calendar date.
//
// TriggerAt is the alarm's wall-clock time on Date. Deadline is the last
// instant a verification counts as on time. MaxVerifyBy is the last instant
// a live verification is accepted at all; after it the attempt is rejected
// even if the sweep has not charged yet.
type Occurrence struct {
	Date        string
	TriggerAt   time.Time
	Deadline    time.Time
	MaxVerifyBy time.Time
}

// OnTime reports whether a verification at t beats the deadline.
// The boundary instant itself still counts.
func (o Occurrence) OnTime(t time.Time) bool {
	return !t.After(o.Deadline)
}

// Acceptable reports whether a live verification at t is still within the
// maximum window.
func (o Occurrence) Acceptable(t time.Time) bool {
	return !t.After(o.MaxVerifyBy)
}

// Due reports whether the sweep may settle this occurrence: strictly after
// the deadline, never at it.
func (o Occurrence) Due(now time.Time) bool {
	return now.After(o.Deadline)
}

// ParseAlarmTime parses HH:MM or HH:MM:SS wall-clock time.
func ParseAlarmTime(s string) (hour, min, sec int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid alarm time %q", s)
	}
	fields := make([]int, 3)
	for i, p := range parts {
		v, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("invalid alarm time %q", s)
		}
		fields[i] = v
	}
	hour, min, sec = fields[0], fields[1], fields[2]
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return 0, 0, 0, fmt.Errorf("alarm time %q out of range", s)
	}
	return hour, min, sec, nil
}

// For builds the occurrence of alarmTime on the given date in loc.
func For(alarmTime, date string, loc *time.Location, grace, maxWindow time.Duration) (Occurrence, error) {
	hour, min, sec, err := ParseAlarmTime(alarmTime)
	if err != nil {
		return Occurrence{}, err
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return Occurrence{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	trigger := time.Date(day.Year(), day.Month(), day.Day(), hour, min, sec, 0, loc)
	return Occurrence{
		Date:        date,
		TriggerAt:   trigger,
		Deadline:    trigger.Add(grace),
		MaxVerifyBy: trigger.Add(maxWindow),
	}, nil
}

// Today builds the occurrence for now's calendar date in loc.
func Today(alarmTime string, now time.Time, loc *time.Location, grace, maxWindow time.Duration) (Occurrence, error) {
	return For(alarmTime, now.In(loc).Format(dateLayout), loc, grace, maxWindow)
}

// Next returns the soonest occurrence whose trigger has not passed: today's
// if the alarm has yet to fire, otherwise tomorrow's.
func Next(alarmTime string, now time.Time, loc *time.Location, grace, maxWindow time.Duration) (Occurrence, error) {
	occ, err := Today(alarmTime, now, loc, grace, maxWindow)
	if err != nil {
		return Occurrence{}, err
	}
	if now.In(loc).After(occ.TriggerAt) {
		tomorrow := now.In(loc).AddDate(0, 0, 1).Format(dateLayout)
		return For(alarmTime, tomorrow, loc, grace, maxWindow)
	}
	return occ, nil
}
