package domain

import "time"

// ArchiveEntry is a file or folder in the patient archive.
type ArchiveEntry struct {
	// Name is the base name.
	Name string

	// Path is the full archive path, using forward slashes.
	Path string

	IsFolder bool
	Size     int64
	Modified time.Time
}

// FolderResolution is the result of mapping a patient name to an archive folder.
type FolderResolution struct {
	// Target is the folder name the file should be filed under.
	Target string

	// Created is true when no existing folder matched and Target is new.
	Created bool

	// Ambiguous is true when more than one existing folder matched.
	Ambiguous bool

	// Candidates lists every folder that matched, in listing order.
	Candidates []string
}

// FilingResult records what happened to one archive file.
type FilingResult struct {
	File      string
	Folder    string
	Created   bool
	Ambiguous bool
	Skipped   bool
	Err       string
}

// FilingSummary aggregates a filing pass.
type FilingSummary struct {
	Moved          int
	Skipped        int
	FoldersCreated int
	Errors         int
	Results        []FilingResult
}

// MisplacedFile is a file whose name resolves to a different patient folder.
type MisplacedFile struct {
	Path           string
	CurrentFolder  string
	ExpectedFolder string
	PatientName    string
}

// InventoryRow is one line of the archive inventory workbook.
type InventoryRow struct {
	ClientName string
	Date       string
	Filename   string
	SizeKB     float64
	Path       string
}
