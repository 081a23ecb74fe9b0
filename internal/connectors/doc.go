// Package connectors groups the adapters for the external systems the
// practice works with: Google Drive, Docs, Sheets and Gmail, the Dropbox
// patient archive, a local archive directory, Excel workbooks and SMTP.
//
// Each subpackage implements one or more driven ports and maps its
// service's failures onto the domain error sentinels.
package connectors
