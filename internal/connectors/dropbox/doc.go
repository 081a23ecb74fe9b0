// Package dropbox implements the note archive on a Dropbox account.
//
// Paths are Dropbox paths such as "/Soap Notes/Jane_Doe_06_06_2025.pdf".
// Dropbox compares paths case-insensitively.
package dropbox
