package drive

import (
	"fmt"
	"strings"
)

// MimeTypeFolder is the Drive folder MIME type.
const MimeTypeFolder = "application/vnd.google-apps.folder"

// NameQuery builds a files.list query matching every term in the file name,
// restricted to mimeTypes and excluding trashed files. Drive's name
// predicate is case-sensitive, which is why callers issue case variants.
func NameQuery(terms, mimeTypes []string) string {
	var parts []string
	for _, t := range terms {
		parts = append(parts, fmt.Sprintf("name contains '%s'", escape(t)))
	}
	if mq := mimeQuery(mimeTypes); mq != "" {
		parts = append(parts, mq)
	}
	parts = append(parts, "trashed = false")
	return strings.Join(parts, " and ")
}

// ChildrenQuery lists non-trashed children of a folder, optionally limited
// to mimeTypes.
func ChildrenQuery(folderID string, mimeTypes []string) string {
	parts := []string{fmt.Sprintf("'%s' in parents", escape(folderID))}
	if mq := mimeQuery(mimeTypes); mq != "" {
		parts = append(parts, mq)
	}
	parts = append(parts, "trashed = false")
	return strings.Join(parts, " and ")
}

// FolderQuery finds a folder by exact name.
func FolderQuery(name string) string {
	return fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escape(name), MimeTypeFolder)
}

// mimeQuery matches any of mimeTypes. Empty input gives an empty query.
func mimeQuery(mimeTypes []string) string {
	switch len(mimeTypes) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("mimeType = '%s'", escape(mimeTypes[0]))
	}
	ors := make([]string, len(mimeTypes))
	for i, m := range mimeTypes {
		ors[i] = fmt.Sprintf("mimeType = '%s'", escape(m))
	}
	return "(" + strings.Join(ors, " or ") + ")"
}

// escape quotes a value for use inside a single-quoted query string.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
