// Package tournament derives the tournament exports consumed next to the
// market snapshot: base volumes of running tournaments and the archive of
// finished ones.
package tournament

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alphaScope/internal/model"
)

const (
	labelFinalized = "FINALIZED"
	statusEnded    = "ENDED"
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04:05"
)

// RecordSource lists tournament records.
type RecordSource interface {
	ListTournaments(ctx context.Context) ([]model.Tournament, error)
}

// IsActive reports whether t still accrues volume on now's UTC date.
func IsActive(t model.Tournament, now time.Time) bool {
	if t.AlphaID() == "" {
		return false
	}
	if t.StatusLabel() == labelFinalized {
		return false
	}
	end := t.DataString("end")
	return end == "" || end >= now.UTC().Format(dateLayout)
}

// StartTime returns the UTC start of t from its start date and optional
// HH:MM[:SS] start time.
func StartTime(t model.Tournament) (time.Time, error) {
	start := strings.TrimSpace(t.DataString("start"))
	if start == "" {
		return time.Time{}, fmt.Errorf("tournament %d has no start date", t.ID)
	}
	return combine(start, t.DataString("startTime"), "00:00")
}

// IsFinished reports whether t is over: flagged as such, or past its end.
func IsFinished(t model.Tournament, now time.Time) bool {
	status := strings.ToUpper(t.Column(t.Status, "status"))
	if t.StatusLabel() == labelFinalized || status == statusEnded || status == labelFinalized {
		return true
	}
	if t.IsFinalized || t.DataBool("is_finalized") {
		return true
	}

	if endAt := strings.TrimSpace(t.Column(t.EndAt, "end_at")); endAt != "" {
		ts, err := parseInstant(endAt)
		return err == nil && now.After(ts)
	}
	if end := strings.TrimSpace(t.Column(t.End, "end")); end != "" {
		ts, err := combine(end, t.Column(t.EndTime, "endTime"), "23:59:59")
		return err == nil && now.After(ts)
	}
	return false
}

func combine(date, clock, fallback string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = fallback
	}
	if len(clock) == 5 {
		clock += ":00"
	}
	ts, err := time.ParseInLocation(dateLayout+"T"+clockLayout, date+"T"+clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %sT%s: %w", date, clock, err)
	}
	return ts, nil
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
}

func parseInstant(input string) (time.Time, error) {
	for _, layout := range instantLayouts {
		if ts, err := time.ParseInLocation(layout, input, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", input)
}

func startOfDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
