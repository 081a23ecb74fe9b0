package drive

import (
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// Field masks for list requests.
const (
	fileFields    = "nextPageToken, files(id, name, mimeType, modifiedTime)"
	commentFields = "nextPageToken, comments(id, content, createdTime, replies(id, content, createdTime))"
)

// SignatureURI is the public image URI the Docs API fetches an inline
// signature from.
func SignatureURI(fileID string) string {
	return "https://drive.google.com/uc?id=" + fileID
}

// fileToCandidate converts a Drive file to a search candidate.
func fileToCandidate(f *drive.File) domain.DocumentCandidate {
	return domain.DocumentCandidate{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
	}
}

// fileToSignable converts a Drive file to a signable note document.
func fileToSignable(f *drive.File) domain.SignableDocument {
	return domain.SignableDocument{
		ID:           f.Id,
		Name:         f.Name,
		ModifiedTime: parseTime(f.ModifiedTime),
	}
}

// flattenComments returns every comment followed by its replies, in order.
func flattenComments(comments []*drive.Comment) []domain.CommentEntry {
	var out []domain.CommentEntry
	for _, c := range comments {
		if c == nil {
			continue
		}
		out = append(out, domain.CommentEntry{
			ID:        c.Id,
			Content:   c.Content,
			CreatedAt: parseTime(c.CreatedTime),
		})
		for _, r := range c.Replies {
			if r == nil {
				continue
			}
			out = append(out, domain.CommentEntry{
				ID:        r.Id,
				Content:   r.Content,
				CreatedAt: parseTime(r.CreatedTime),
			})
		}
	}
	return out
}

// parseTime parses an RFC 3339 timestamp. Unparseable input gives the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
