package domain

import (
	"fmt"
	"strings"
)

// ClinicianRecord describes a clinician who can sign notes.
type ClinicianRecord struct {
	// Name is the clinician's full display name.
	Name string `json:"name"`

	// License is the clinician's provider licence number.
	License string `json:"license"`

	// SignatureAsset is the filename of the clinician's signature image.
	SignatureAsset string `json:"signature_asset,omitempty"`
}

// ClinicianAlias maps one shorthand (initials or first name) to a clinician.
type ClinicianAlias struct {
	Alias     string
	Clinician ClinicianRecord
}

// ClinicianDirectory is an ordered, immutable alias table.
// Aliases are tested in insertion order, so earlier entries take priority.
type ClinicianDirectory struct {
	aliases []ClinicianAlias
}

// NewClinicianDirectory builds a directory from an ordered alias list.
// Duplicate or blank aliases are rejected.
func NewClinicianDirectory(aliases []ClinicianAlias) (*ClinicianDirectory, error) {
	seen := make(map[string]struct{}, len(aliases))
	out := make([]ClinicianAlias, 0, len(aliases))

	for _, a := range aliases {
		alias := strings.TrimSpace(a.Alias)
		if alias == "" {
			return nil, fmt.Errorf("%w: blank alias for %q", ErrInvalidInput, a.Clinician.Name)
		}
		if _, ok := seen[alias]; ok {
			return nil, fmt.Errorf("%w: duplicate alias %q", ErrInvalidInput, alias)
		}
		seen[alias] = struct{}{}
		out = append(out, ClinicianAlias{Alias: alias, Clinician: a.Clinician})
	}

	return &ClinicianDirectory{aliases: out}, nil
}

// Aliases returns a copy of the alias table in priority order.
func (d *ClinicianDirectory) Aliases() []ClinicianAlias {
	out := make([]ClinicianAlias, len(d.aliases))
	copy(out, d.aliases)
	return out
}

// Len returns the number of aliases.
func (d *ClinicianDirectory) Len() int {
	return len(d.aliases)
}

// Lookup returns the clinician for an exact alias.
func (d *ClinicianDirectory) Lookup(alias string) (ClinicianRecord, bool) {
	for _, a := range d.aliases {
		if a.Alias == alias {
			return a.Clinician, true
		}
	}
	return ClinicianRecord{}, false
}

// Clinicians returns each distinct clinician once, in first-alias order.
func (d *ClinicianDirectory) Clinicians() []ClinicianRecord {
	seen := make(map[string]struct{})
	var out []ClinicianRecord
	for _, a := range d.aliases {
		if _, ok := seen[a.Clinician.Name]; ok {
			continue
		}
		seen[a.Clinician.Name] = struct{}{}
		out = append(out, a.Clinician)
	}
	return out
}
