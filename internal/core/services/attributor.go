package services

import (
	"regexp"
	"strings"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// DefaultAttributionLines is how many non-skipped lines are scanned for a
// clinician mention.
const DefaultAttributionLines = 15

// AttributionPattern names the rule that matched a clinician alias.
type AttributionPattern string

const (
	PatternDateAlias   AttributionPattern = "date_alias"
	PatternAliasOnly   AttributionPattern = "alias_only"
	PatternLabel       AttributionPattern = "therapist_label"
	PatternCredential  AttributionPattern = "credential_alias"
	PatternAliasPrefix AttributionPattern = "alias_prefix"
)

// Attribution explains why a clinician was chosen.
type Attribution struct {
	Clinician domain.ClinicianRecord
	Alias     string
	Pattern   AttributionPattern
	Line      string
}

type compiledAlias struct {
	alias     string
	lower     string
	clinician domain.ClinicianRecord
	dated     *regexp.Regexp
	lmt       *regexp.Regexp
}

// ClinicianAttributor identifies which clinician wrote a note.
type ClinicianAttributor struct {
	aliases  []compiledAlias
	maxLines int
}

// NewClinicianAttributor compiles the directory's aliases. maxLines <= 0
// uses DefaultAttributionLines.
func NewClinicianAttributor(dir *domain.ClinicianDirectory, maxLines int) *ClinicianAttributor {
	if maxLines <= 0 {
		maxLines = DefaultAttributionLines
	}

	entries := dir.Aliases()
	compiled := make([]compiledAlias, 0, len(entries))
	for _, a := range entries {
		lower := strings.ToLower(a.Alias)
		quoted := regexp.QuoteMeta(lower)
		compiled = append(compiled, compiledAlias{
			alias:     a.Alias,
			lower:     lower,
			clinician: a.Clinician,
			dated:     regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}\s+` + quoted + `(?:\s|$)`),
			lmt:       regexp.MustCompile(`\blmt\s+` + quoted + `(?:\s|$)`),
		})
	}

	return &ClinicianAttributor{aliases: compiled, maxLines: maxLines}
}

// Attribute scans the head of a note for a clinician mention. Section
// lines (S:, O:, A:, P:) and blank lines are skipped. The first line that
// matches any alias wins; within a line, aliases are tried in directory order.
func (a *ClinicianAttributor) Attribute(content string) (*Attribution, bool) {
	scanned := 0
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isSectionLine(line) {
			continue
		}
		if scanned >= a.maxLines {
			break
		}
		scanned++

		lower := strings.ToLower(line)
		for i := range a.aliases {
			ca := &a.aliases[i]
			if p, ok := ca.match(lower); ok {
				return &Attribution{
					Clinician: ca.clinician,
					Alias:     ca.alias,
					Pattern:   p,
					Line:      line,
				}, true
			}
		}
	}
	return nil, false
}

func (ca *compiledAlias) match(line string) (AttributionPattern, bool) {
	switch {
	case ca.dated.MatchString(line):
		return PatternDateAlias, true
	case line == ca.lower:
		return PatternAliasOnly, true
	case strings.Contains(line, "therapist:") && strings.Contains(line, ca.lower):
		return PatternLabel, true
	case ca.lmt.MatchString(line):
		return PatternCredential, true
	case strings.HasPrefix(line, ca.lower+" ") || strings.HasPrefix(line, ca.lower+"\t"):
		return PatternAliasPrefix, true
	}
	return "", false
}

func isSectionLine(line string) bool {
	if len(line) < 2 || line[1] != ':' {
		return false
	}
	switch line[0] {
	case 'S', 'O', 'A', 'P', 's', 'o', 'a', 'p':
		return true
	}
	return false
}
