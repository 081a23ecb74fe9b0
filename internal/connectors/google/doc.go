// Package google provides shared infrastructure for the Google API connectors.
//
// The drive, docs, sheets and gmail subpackages use it for:
//   - TokenSource adapter bridging a driven.TokenProvider to oauth2.TokenSource
//   - Service factories for authenticated API clients
//   - Mapping Google API errors onto the domain error sentinels
//   - Rate limiting to stay under per-user quotas
//
// # Usage
//
//	ts := google.NewTokenSource(ctx, tokenProvider)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// The connectors need these scopes (see Scopes):
//   - https://www.googleapis.com/auth/drive
//   - https://www.googleapis.com/auth/documents
//   - https://www.googleapis.com/auth/spreadsheets
//   - https://www.googleapis.com/auth/gmail.send
package google
