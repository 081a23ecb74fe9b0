package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// DateTagExtractor finds the comment that carries the note for a given
// appointment date.
type DateTagExtractor struct {
	loc *time.Location
}

// NewDateTagExtractor creates an extractor. Comment timestamps are compared
// in loc; nil means time.Local.
func NewDateTagExtractor(loc *time.Location) *DateTagExtractor {
	if loc == nil {
		loc = time.Local
	}
	return &DateTagExtractor{loc: loc}
}

var targetDate = regexp.MustCompile(`^\s*(\d{1,2})[/-](\d{1,2})[/-](\d{2}|\d{4})\b`)

// ParseTargetDate parses an appointment date written as M/D/Y or M-D-Y.
// Two-digit years are taken as 20YY. Anything after the year is ignored.
func ParseTargetDate(s string) (domain.CalendarDate, error) {
	m := targetDate.FindStringSubmatch(s)
	if m == nil {
		return domain.CalendarDate{}, fmt.Errorf("%w: date %q", domain.ErrMalformedInput, s)
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return domain.CalendarDate{}, fmt.Errorf("%w: date %q out of range", domain.ErrMalformedInput, s)
	}

	return domain.CalendarDate{Year: year, Month: time.Month(month), Day: day}, nil
}

// Patterns returns the textual date forms clinicians use to head a note,
// in the order they are tried. Duplicates are removed.
func Patterns(d domain.CalendarDate) []string {
	m := int(d.Month)
	y := strconv.Itoa(d.Year)
	yy := fmt.Sprintf("%02d", d.Year%100)
	mm := fmt.Sprintf("%02d", m)
	dd := fmt.Sprintf("%02d", d.Day)
	full := strings.ToLower(d.Month.String())
	mon := full[:3]
	mon3 := strings.ToUpper(mon)

	raw := []string{
		fmt.Sprintf("%d/%d/%s", m, d.Day, y),
		fmt.Sprintf("%s/%s/%s", mm, dd, y),
		fmt.Sprintf("%d/%d/%s", m, d.Day, yy),
		fmt.Sprintf("%s/%s/%s", mm, dd, yy),

		fmt.Sprintf("%s/%d/%s", full, d.Day, y),
		fmt.Sprintf("%s/%d/%s", mon, d.Day, y),
		fmt.Sprintf("%s/%d/%s", mon3, d.Day, y),
		fmt.Sprintf("%s/%d/%s", mon, d.Day, yy),

		fmt.Sprintf("%s/%s/%s", mon, dd, y),
		fmt.Sprintf("%s/%s/%s", mon3, dd, y),
		fmt.Sprintf("%s/%s/%s", mon, dd, yy),

		fmt.Sprintf("%d-%d-%s", m, d.Day, y),
		fmt.Sprintf("%d.%d.%s", m, d.Day, y),
		fmt.Sprintf("%d-%d-%s", m, d.Day, yy),
		fmt.Sprintf("%d.%d.%s", m, d.Day, yy),

		fmt.Sprintf(" %d/%d/%s", m, d.Day, yy),
		fmt.Sprintf(" %d/%d/%s", m, d.Day, y),
	}
	return dedupe(raw)
}

// FlexiblePatterns are the short forms tried after the full pattern list
// fails for a comment.
func FlexiblePatterns(d domain.CalendarDate) []string {
	yy := fmt.Sprintf("%02d", d.Year%100)
	return dedupe([]string{
		fmt.Sprintf("%d/%d/%s", int(d.Month), d.Day, yy),
		fmt.Sprintf("%02d/%02d/%s", int(d.Month), d.Day, yy),
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ExtractNoteForDate returns the content of the first comment that mentions
// target in any known form. A form only counts when no digit sits directly
// before or after it, so 1/6/2025 is not found inside 11/6/2025. If no
// comment mentions the date, the first comment created on the target day is
// returned. A malformed target yields false.
func (e *DateTagExtractor) ExtractNoteForDate(comments []domain.CommentEntry, target string) (string, bool) {
	d, err := ParseTargetDate(target)
	if err != nil {
		logger.Warn("cannot match comments: %v", err)
		return "", false
	}
	return e.ExtractNote(comments, d)
}

// ExtractNote is ExtractNoteForDate for an already parsed date. Date forms
// must not touch another digit, so a plain substring hit like 1/6/2025
// inside 11/6/2025 is rejected.
func (e *DateTagExtractor) ExtractNote(comments []domain.CommentEntry, d domain.CalendarDate) (string, bool) {
	patterns := lowerAll(Patterns(d))
	flexible := lowerAll(FlexiblePatterns(d))

	for _, c := range comments {
		content := strings.ToLower(c.Content)
		if containsDateTag(content, patterns) || containsDateTag(content, flexible) {
			return c.Content, true
		}
	}

	for _, c := range comments {
		if c.CreatedAt.IsZero() {
			continue
		}
		if d.SameDay(c.CreatedAt.In(e.loc)) {
			logger.Debug("no dated comment for %s, using comment created that day", d)
			return c.Content, true
		}
	}

	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// containsDateTag reports whether any pattern occurs in content without a
// digit immediately before or after it, so 1/6/2025 is not found inside
// 11/6/2025.
func containsDateTag(content string, patterns []string) bool {
	for _, p := range patterns {
		for offset := 0; offset <= len(content)-len(p); {
			i := strings.Index(content[offset:], p)
			if i < 0 {
				break
			}
			start := offset + i
			end := start + len(p)
			if !isDigitAt(content, start-1) && !isDigitAt(content, end) {
				return true
			}
			offset = start + 1
		}
	}
	return false
}

func isDigitAt(s string, i int) bool {
	return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9'
}
