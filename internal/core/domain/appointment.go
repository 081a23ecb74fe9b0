package domain

import (
	"fmt"
	"time"
)

// AppointmentRecord is one row of the appointment sheet.
// Fields are the raw cell values; rows shorter than the sheet width
// are padded with empty strings before they reach the core.
type AppointmentRecord struct {
	// Row is the 1-based sheet row number.
	Row int

	// Date is the appointment date as written in the sheet, e.g. "6/6/2025".
	Date string

	// ClaimDate is set once the visit has been billed. A blank or
	// non-date value means the patient did not attend.
	ClaimDate string

	// ClinicianLabel is the free-text clinician initials or name.
	ClinicianLabel string

	// PatientName is the patient's full name.
	PatientName string

	// ExistingNote holds a note already written back on a previous run.
	ExistingNote string
}

// CalendarDate is a day without a time or zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// String formats the date as M/D/YYYY.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%d/%d/%d", int(d.Month), d.Day, d.Year)
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// SameDay reports whether t falls on this date in t's location.
func (d CalendarDate) SameDay(t time.Time) bool {
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}

// Time returns midnight of the date in loc.
func (d CalendarDate) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}
