package drive

// Default folder names used by the practice.
const (
	DefaultNotesFolder      = "soap notes for vets"
	DefaultSignaturesFolder = "signatures"
)

// Config holds Google Drive connector configuration.
type Config struct {
	// NotesFolder is the folder holding editable note documents.
	NotesFolder string
	// SignaturesFolder holds the clinicians' signature images.
	SignaturesFolder string
	// PageSize is the page size for list requests.
	PageSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		NotesFolder:      DefaultNotesFolder,
		SignaturesFolder: DefaultSignaturesFolder,
		PageSize:         100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.NotesFolder == "" {
		c.NotesFolder = d.NotesFolder
	}
	if c.SignaturesFolder == "" {
		c.SignaturesFolder = d.SignaturesFolder
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	return c
}
