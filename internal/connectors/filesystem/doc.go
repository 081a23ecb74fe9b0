// Package filesystem provides a patient archive on the local disk, for
// practices whose archive is a synced folder such as the Dropbox desktop
// client, and a watcher that files new notes as they arrive in the inbox.
package filesystem
