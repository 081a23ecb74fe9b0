package drive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
)

func TestFlattenComments(t *testing.T) {
	comments := []*drive.Comment{
		{
			Id:          "c1",
			Content:     "CS 6/6/25 Patient reports less pain",
			CreatedTime: "2025-06-06T18:30:00.000Z",
			Replies: []*drive.Reply{
				{Id: "r1", Content: "LG 6/7/25 follow up", CreatedTime: "2025-06-07T10:00:00Z"},
			},
		},
		nil,
		{Id: "c2", Content: "no date", CreatedTime: "not a time"},
	}

	got := flattenComments(comments)

	require.Len(t, got, 3)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, time.Date(2025, 6, 6, 18, 30, 0, 0, time.UTC), got[0].CreatedAt)
	assert.Equal(t, "r1", got[1].ID)
	assert.Equal(t, "LG 6/7/25 follow up", got[1].Content)
	assert.True(t, got[2].CreatedAt.IsZero())
}

func TestFileConversions(t *testing.T) {
	f := &drive.File{Id: "f1", Name: "Jane Doe.pdf", MimeType: "application/pdf", ModifiedTime: "2025-06-06T12:00:00Z"}

	c := fileToCandidate(f)
	assert.Equal(t, "f1", c.ID)
	assert.Equal(t, "Jane Doe.pdf", c.Name)
	assert.False(t, c.IsAmbiguousMatch)

	s := fileToSignable(f)
	assert.Equal(t, time.Date(2025, 6, 6, 12, 0, 0, 0, time.UTC), s.ModifiedTime)
}

func TestSignatureURI(t *testing.T) {
	assert.Equal(t, "https://drive.google.com/uc?id=abc", SignatureURI("abc"))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{NotesFolder: "notes"}.withDefaults()
	assert.Equal(t, "notes", cfg.NotesFolder)
	assert.Equal(t, DefaultSignaturesFolder, cfg.SignaturesFolder)
	assert.Equal(t, int64(100), cfg.PageSize)
}
