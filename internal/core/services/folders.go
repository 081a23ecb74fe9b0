package services

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/names"
)

type folderEntry struct {
	name string
	norm string
}

// PatientFolderResolver maps patient names extracted from filenames to
// archive folders. Folders created during a batch are remembered so later
// files for the same patient land in the same place.
type PatientFolderResolver struct {
	mu      sync.Mutex
	folders []folderEntry
}

// NewPatientFolderResolver creates a resolver over the existing folder names.
func NewPatientFolderResolver(existing []string) *PatientFolderResolver {
	r := &PatientFolderResolver{}
	for _, name := range existing {
		r.add(name)
	}
	return r
}

// Folders returns the known folder names in listing order.
func (r *PatientFolderResolver) Folders() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.folders))
	for i, f := range r.folders {
		out[i] = f.name
	}
	return out
}

// Add registers a folder created outside the resolver.
func (r *PatientFolderResolver) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(name)
}

func (r *PatientFolderResolver) add(name string) {
	norm := normaliseFolder(name)
	if norm == "" {
		return
	}
	for _, f := range r.folders {
		if f.norm == norm {
			return
		}
	}
	r.folders = append(r.folders, folderEntry{name: strings.TrimSpace(name), norm: norm})
}

// Resolve returns the folder for candidate, registering a new folder when
// nothing matches. Resolving the same candidate again returns the same
// folder with Created false.
func (r *PatientFolderResolver) Resolve(candidate string) (domain.FolderResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok, err := r.lookup(candidate)
	if err != nil || ok {
		return res, err
	}

	target := strings.Join(strings.Fields(candidate), " ")
	r.add(target)
	return domain.FolderResolution{Target: target, Created: true}, nil
}

// Lookup is Resolve without creation. ok is false when no folder matches.
func (r *PatientFolderResolver) Lookup(candidate string) (domain.FolderResolution, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(candidate)
}

func (r *PatientFolderResolver) lookup(candidate string) (domain.FolderResolution, bool, error) {
	norm := normaliseFolder(candidate)
	if norm == "" {
		return domain.FolderResolution{}, false, fmt.Errorf("%w: empty patient name", domain.ErrInvalidInput)
	}

	for _, f := range r.folders {
		if f.norm == norm {
			return domain.FolderResolution{Target: f.name, Candidates: []string{f.name}}, true, nil
		}
	}

	tokens := strings.Fields(norm)
	if len(tokens) < 2 {
		return domain.FolderResolution{}, false, nil
	}

	var words []string
	for _, t := range tokens {
		if utf8.RuneCountInString(t) >= 2 {
			words = append(words, t)
		}
	}
	if len(words) == 0 {
		return domain.FolderResolution{}, false, nil
	}

	var matched []folderEntry
	for _, f := range r.folders {
		if containsAllWords(f.norm, words) {
			matched = append(matched, f)
		}
	}

	switch len(matched) {
	case 0:
		return domain.FolderResolution{}, false, nil
	case 1:
		return domain.FolderResolution{Target: matched[0].name, Candidates: []string{matched[0].name}}, true, nil
	}

	best := matched[0]
	candidates := make([]string, len(matched))
	for i, f := range matched {
		candidates[i] = f.name
		if utf8.RuneCountInString(f.name) < utf8.RuneCountInString(best.name) {
			best = f
		}
	}
	return domain.FolderResolution{Target: best.name, Ambiguous: true, Candidates: candidates}, true, nil
}

func normaliseFolder(s string) string {
	return strings.Join(strings.Fields(names.Normalise(s)), " ")
}

var (
	twoDigits = regexp.MustCompile(`^\d{2}$`)
	yearPart  = regexp.MustCompile(`^(\d{2}|\d{4})$`)
	timeOrDay = regexp.MustCompile(`^\d{2,4}$`)
)

// ExtractPatientName derives the patient name from an archived note
// filename such as "Jane_Doe_06_06_2025.pdf" or
// "Jane_Doe_06_06_2025__10_30_AM.pdf". Without a date after the name it
// drops a trailing time or date, and otherwise takes the first two parts.
func ExtractPatientName(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	parts := strings.Split(base, "_")
	n := len(parts)

	if i := dateIndex(parts); i > 0 {
		return joinName(parts[:i])
	}

	switch {
	case n >= 3 && (parts[n-1] == "AM" || parts[n-1] == "PM"):
		end := n - 3
		for i := end - 1; i >= 2; i-- {
			if timeOrDay.MatchString(parts[i]) && twoDigits.MatchString(parts[i-1]) && twoDigits.MatchString(parts[i-2]) {
				end = i - 2
				break
			}
		}
		return joinName(parts[:end])
	case n >= 3 && timeOrDay.MatchString(parts[n-1]) && twoDigits.MatchString(parts[n-2]) && twoDigits.MatchString(parts[n-3]):
		return joinName(parts[:n-3])
	case n >= 2:
		return joinName(parts[:2])
	}
	return strings.TrimSpace(parts[0])
}

// dateIndex returns the index of the first MM_DD_YY(YY) run in parts, or -1.
func dateIndex(parts []string) int {
	for i := 0; i+2 < len(parts); i++ {
		if twoDigits.MatchString(parts[i]) && twoDigits.MatchString(parts[i+1]) && yearPart.MatchString(parts[i+2]) {
			return i
		}
	}
	return -1
}

func joinName(parts []string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
