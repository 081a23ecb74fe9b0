package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// DefaultLookbackDays is how far back an appointment may be and still be processed.
const DefaultLookbackDays = 60

// claimDatePattern matches a billed claim date such as 6/6 or 6-6-2025.
var claimDatePattern = regexp.MustCompile(`\d+[/-]\d+([/-]\d+)?`)

// SkipReason explains why an appointment was not processed.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipMissingFields SkipReason = "missing date or patient"
	SkipHasNote       SkipReason = "note already recorded"
	SkipTooOld        SkipReason = "outside lookback window"
	SkipNotAttended   SkipReason = "no claim date"
	SkipBadDate       SkipReason = "unparseable date"
)

// Eligibility decides which appointment rows need a note.
type Eligibility struct {
	LookbackDays int
	Now          func() time.Time
	Location     *time.Location
}

// Check returns the parsed appointment date, or the reason the record is skipped.
func (e Eligibility) Check(rec domain.AppointmentRecord) (domain.CalendarDate, SkipReason) {
	if strings.TrimSpace(rec.Date) == "" || strings.TrimSpace(rec.PatientName) == "" {
		return domain.CalendarDate{}, SkipMissingFields
	}
	if strings.TrimSpace(rec.ExistingNote) != "" {
		return domain.CalendarDate{}, SkipHasNote
	}

	date, err := ParseTargetDate(rec.Date)
	if err != nil {
		return domain.CalendarDate{}, SkipBadDate
	}

	if e.LookbackDays > 0 {
		now := time.Now
		if e.Now != nil {
			now = e.Now
		}
		cutoff := now().AddDate(0, 0, -e.LookbackDays)
		if date.Time(e.Location).Before(cutoff) {
			return domain.CalendarDate{}, SkipTooOld
		}
	}

	if !claimDatePattern.MatchString(rec.ClaimDate) {
		return domain.CalendarDate{}, SkipNotAttended
	}

	return date, SkipNone
}
