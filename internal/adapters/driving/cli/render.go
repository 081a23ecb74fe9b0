package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/services"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	labelStyle = lipgloss.NewStyle().Width(20)
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderReport writes the plain report body, or a coloured summary when
// w is a terminal.
func renderReport(w io.Writer, s *domain.ReportSnapshot) {
	if !isTerminal(w) {
		fmt.Fprint(w, services.FormatReport(s))
		return
	}

	fmt.Fprintln(w, titleStyle.Render("SOAP Notes Extraction Report"))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Run %s, started %s", s.RunID, s.StartedAt.Format("2 Jan 2006 15:04"))))
	if s.Cancelled {
		fmt.Fprintln(w, warnStyle.Render("Cancelled before completion"))
	}
	fmt.Fprintln(w)

	count(w, okStyle, "Notes extracted", s.Summary.Extracted)
	count(w, warnStyle, "Missing notes", s.Summary.NoNoteFound)
	count(w, warnStyle, "No document found", s.Summary.NoDocumentFound)
	count(w, warnStyle, "Ambiguous matches", s.Summary.Ambiguous)
	count(w, errStyle, "Errors", s.Summary.Errors)

	var shown bool
	for _, o := range s.Outcomes {
		style, label := outcomeStyle(o)
		if label == "" {
			continue
		}
		if !shown {
			fmt.Fprintln(w)
			shown = true
		}
		line := fmt.Sprintf("Row %-4d %s (%s) [%s]", o.Row, o.PatientName, o.Date, o.ClinicianKey())
		if o.Message != "" {
			line += ": " + o.Message
		}
		fmt.Fprintf(w, "%s %s\n", style.Render(fmt.Sprintf("%-18s", label)), line)
	}
}

func count(w io.Writer, style lipgloss.Style, label string, n int) {
	value := mutedStyle.Render("0")
	if n > 0 {
		value = style.Render(fmt.Sprint(n))
	}
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), value)
}

func outcomeStyle(o domain.ExtractionOutcome) (lipgloss.Style, string) {
	switch {
	case o.Kind == domain.OutcomeError:
		return errStyle, "error"
	case o.Kind == domain.OutcomeNoNoteFound:
		return warnStyle, "missing note"
	case o.Kind == domain.OutcomeNoDocumentFound:
		return warnStyle, "no document"
	case o.Ambiguous:
		return warnStyle, "check match"
	}
	return lipgloss.Style{}, ""
}

func renderRuns(w io.Writer, runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  extracted=%d missing=%d no_document=%d errors=%d\n",
			r.RunID, r.StartedAt.Format("2006-01-02 15:04"),
			r.Summary.Extracted, r.Summary.NoNoteFound, r.Summary.NoDocumentFound, r.Summary.Errors)
	}
}

func renderHistory(w io.Writer, history []domain.TaskResult) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No scheduled runs recorded.")
		return
	}
	for _, r := range history {
		status := "ok"
		if !r.Success {
			status = "failed: " + r.Error
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.EndedAt.Sub(r.StartedAt).Round(time.Second), status)
	}
}

func renderSigning(w io.Writer, s *domain.SigningSummary) {
	for _, r := range s.Results {
		switch r.Status {
		case domain.SigningSigned:
			fmt.Fprintf(w, "signed        %s (%s)\n", r.Name, r.Clinician)
		case domain.SigningUnattributed:
			fmt.Fprintf(w, "unattributed  %s\n", r.Name)
		case domain.SigningFailed:
			fmt.Fprintf(w, "failed        %s: %s\n", r.Name, r.Err)
		}
	}
	fmt.Fprintf(w, "Signed %d, already signed %d, unattributed %d, failed %d.\n",
		s.Signed, s.AlreadySigned, s.Unattributed, s.Failed)
}

func renderFiling(w io.Writer, s *domain.FilingSummary, dryRun bool) {
	verb := "moved"
	if dryRun {
		verb = "would move"
	}
	for _, r := range s.Results {
		switch {
		case r.Err != "":
			fmt.Fprintf(w, "error   %s: %s\n", r.File, r.Err)
		case r.Skipped:
			fmt.Fprintf(w, "skipped %s\n", r.File)
		default:
			note := ""
			if r.Created {
				note = " (new folder)"
			} else if r.Ambiguous {
				note = " (ambiguous, please check)"
			}
			fmt.Fprintf(w, "%s %s -> %s%s\n", verb, r.File, r.Folder, note)
		}
	}
	fmt.Fprintf(w, "Moved %d, skipped %d, folders created %d, errors %d.\n",
		s.Moved, s.Skipped, s.FoldersCreated, s.Errors)
}
