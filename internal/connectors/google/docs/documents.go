// Package docs reads and signs note documents through the Google Docs API.
package docs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// Lister lists the note documents awaiting signature. The drive
// connector's Client satisfies it.
type Lister interface {
	ListNoteDocuments(ctx context.Context) ([]domain.SignableDocument, error)
}

// Documents implements driven.NoteDocuments on top of the Docs API.
type Documents struct {
	lister  Lister
	svc     *docs.Service
	limiter *google.RateLimiter
}

var _ driven.NoteDocuments = (*Documents)(nil)

// New creates a Documents adapter.
func New(lister Lister, svc *docs.Service) *Documents {
	return &Documents{
		lister:  lister,
		svc:     svc,
		limiter: google.NewRateLimiter(google.ServiceDocs),
	}
}

// ListNoteDocuments implements driven.NoteDocuments.
func (d *Documents) ListNoteDocuments(ctx context.Context) ([]domain.SignableDocument, error) {
	return d.lister.ListNoteDocuments(ctx)
}

// ReadText implements driven.NoteDocuments.
func (d *Documents) ReadText(ctx context.Context, documentID string) (string, error) {
	var doc *docs.Document
	err := d.limiter.Do(ctx, func() error {
		var err error
		doc, err = d.svc.Documents.Get(documentID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("get document %s: %w", documentID, err)
	}
	return PlainText(doc), nil
}

// AppendSignature implements driven.NoteDocuments. Text and image go in one
// batch so a failure leaves the document untouched.
func (d *Documents) AppendSignature(
	ctx context.Context, documentID, text string, image *driven.SignatureImage,
) error {
	req := &docs.BatchUpdateDocumentRequest{Requests: SignatureRequests(text, image)}
	err := d.limiter.Do(ctx, func() error {
		_, err := d.svc.Documents.BatchUpdate(documentID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("sign document %s: %w", documentID, err)
	}
	logger.L().Debug("signature appended", zap.String("document", documentID), zap.Bool("image", image != nil))
	return nil
}

// PlainText concatenates every text run in the document body, including
// text inside tables.
func PlainText(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var b strings.Builder
	writeElements(&b, doc.Body.Content)
	return b.String()
}

func writeElements(b *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el == nil:
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe != nil && pe.TextRun != nil {
					b.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeElements(b, cell.Content)
				}
			}
		}
	}
}

// SignatureRequests builds the batch that appends text, then the image,
// at the end of the body.
func SignatureRequests(text string, image *driven.SignatureImage) []*docs.Request {
	reqs := []*docs.Request{{
		InsertText: &docs.InsertTextRequest{
			EndOfSegmentLocation: &docs.EndOfSegmentLocation{},
			Text:                 text,
		},
	}}
	if image == nil {
		return reqs
	}
	return append(reqs, &docs.Request{
		InsertInlineImage: &docs.InsertInlineImageRequest{
			EndOfSegmentLocation: &docs.EndOfSegmentLocation{},
			Uri:                  image.URI,
			ObjectSize: &docs.Size{
				Width:  &docs.Dimension{Magnitude: image.WidthPoints, Unit: "PT"},
				Height: &docs.Dimension{Magnitude: image.HeightPoints, Unit: "PT"},
			},
		},
	})
}
