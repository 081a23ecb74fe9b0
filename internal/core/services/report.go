package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// RunReport accumulates extraction outcomes. It is safe for concurrent use.
type RunReport struct {
	mu        sync.Mutex
	runID     string
	startedAt time.Time
	outcomes  []domain.ExtractionOutcome
}

// NewRunReport starts an empty report.
func NewRunReport(runID string, startedAt time.Time) *RunReport {
	return &RunReport{runID: runID, startedAt: startedAt}
}

// Record appends an outcome.
func (r *RunReport) Record(o domain.ExtractionOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns a copy of the recorded outcomes in insertion order.
func (r *RunReport) Outcomes() []domain.ExtractionOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ExtractionOutcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Summary counts outcomes by kind. Ambiguous is counted alongside the kind.
func (r *RunReport) Summary() domain.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return summarise(r.outcomes)
}

func summarise(outcomes []domain.ExtractionOutcome) domain.Summary {
	var s domain.Summary
	for _, o := range outcomes {
		s.Total++
		switch o.Kind {
		case domain.OutcomeExtracted:
			s.Extracted++
		case domain.OutcomeNoDocumentFound:
			s.NoDocumentFound++
		case domain.OutcomeNoNoteFound:
			s.NoNoteFound++
		case domain.OutcomeError:
			s.Errors++
		}
		if o.Ambiguous {
			s.Ambiguous++
		}
	}
	return s
}

// GroupedByClinician groups outcomes by clinician label, preserving
// insertion order within each group.
func (r *RunReport) GroupedByClinician() map[string][]domain.ExtractionOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return groupByClinician(r.outcomes)
}

func groupByClinician(outcomes []domain.ExtractionOutcome) map[string][]domain.ExtractionOutcome {
	groups := make(map[string][]domain.ExtractionOutcome)
	for _, o := range outcomes {
		key := o.ClinicianKey()
		groups[key] = append(groups[key], o)
	}
	return groups
}

// Snapshot returns the serialisable state of the report.
func (r *RunReport) Snapshot(finishedAt time.Time) *domain.ReportSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	outcomes := make([]domain.ExtractionOutcome, len(r.outcomes))
	copy(outcomes, r.outcomes)

	return &domain.ReportSnapshot{
		RunID:       r.runID,
		StartedAt:   r.startedAt,
		FinishedAt:  finishedAt,
		Summary:     summarise(outcomes),
		Outcomes:    outcomes,
		ByClinician: groupByClinician(outcomes),
	}
}

// sortedKeys returns map keys in lexical order.
func sortedKeys(m map[string][]domain.ExtractionOutcome) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReportSubject is the notification subject line for a run.
func ReportSubject(s *domain.ReportSnapshot) string {
	return fmt.Sprintf("SOAP Notes Extraction Report - %s", s.StartedAt.Format("1/2/2006"))
}

// FormatReport renders a snapshot as the plain-text notification body.
func FormatReport(s *domain.ReportSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SOAP Notes Extraction Report\n")
	fmt.Fprintf(&b, "Run: %s\n", s.RunID)
	fmt.Fprintf(&b, "Started: %s\n", s.StartedAt.Format(time.RFC1123))
	if s.Cancelled {
		fmt.Fprintf(&b, "Status: cancelled before completion\n")
	}
	b.WriteString("\nSUMMARY\n")
	fmt.Fprintf(&b, "  Notes extracted:       %d\n", s.Summary.Extracted)
	fmt.Fprintf(&b, "  Missing notes:         %d\n", s.Summary.NoNoteFound)
	fmt.Fprintf(&b, "  No document found:     %d\n", s.Summary.NoDocumentFound)
	fmt.Fprintf(&b, "  Ambiguous matches:     %d\n", s.Summary.Ambiguous)
	fmt.Fprintf(&b, "  Errors:                %d\n", s.Summary.Errors)

	missing := filterGroups(s.ByClinician, domain.OutcomeNoNoteFound)
	if len(missing) > 0 {
		b.WriteString("\nMISSING NOTES BY CLINICIAN\n")
		for _, key := range sortedKeys(missing) {
			fmt.Fprintf(&b, "\n%s (%d)\n", key, len(missing[key]))
			for _, o := range missing[key] {
				fmt.Fprintf(&b, "  - Row %d: %s (%s)\n", o.Row, o.PatientName, o.Date)
				if len(o.CandidatesChecked) > 0 {
					fmt.Fprintf(&b, "    Checked: %s\n", strings.Join(o.CandidatesChecked, ", "))
				}
			}
		}
	}

	var ambiguous []domain.ExtractionOutcome
	for _, o := range s.Outcomes {
		if o.Ambiguous {
			ambiguous = append(ambiguous, o)
		}
	}
	if len(ambiguous) > 0 {
		b.WriteString("\nAMBIGUOUS MATCHES (please verify)\n")
		for _, o := range ambiguous {
			fmt.Fprintf(&b, "  - Row %d: %s (%s)\n", o.Row, o.PatientName, o.Date)
			for _, c := range o.Candidates {
				fmt.Fprintf(&b, "    %s (%.0f%%)\n", c.Name, c.Similarity*100)
			}
		}
	}

	noDoc := filterGroups(s.ByClinician, domain.OutcomeNoDocumentFound)
	if len(noDoc) > 0 {
		b.WriteString("\nNO DOCUMENT FOUND\n")
		for _, key := range sortedKeys(noDoc) {
			for _, o := range noDoc[key] {
				fmt.Fprintf(&b, "  - Row %d: %s (%s) [%s]\n", o.Row, o.PatientName, o.Date, key)
			}
		}
	}

	errs := filterGroups(s.ByClinician, domain.OutcomeError)
	if len(errs) > 0 {
		b.WriteString("\nERRORS\n")
		for _, key := range sortedKeys(errs) {
			for _, o := range errs[key] {
				fmt.Fprintf(&b, "  - Row %d: %s (%s): %s\n", o.Row, o.PatientName, o.Date, o.Message)
			}
		}
	}

	return b.String()
}

func filterGroups(groups map[string][]domain.ExtractionOutcome, kind domain.OutcomeKind) map[string][]domain.ExtractionOutcome {
	out := make(map[string][]domain.ExtractionOutcome)
	for key, list := range groups {
		for _, o := range list {
			if o.Kind == kind {
				out[key] = append(out[key], o)
			}
		}
	}
	return out
}
